// Package httpserver provides the HTTP/HTTPS server for Larder.
//
// This package implements the primary external API using stdlib net/http:
//
//   - Snapshot endpoints: /tenants/{tenant_id}/backups/export,
//     /tenants/{tenant_id}/backups/validate, /tenants/{tenant_id}/backups/import
//   - Local cache endpoints: /tenants/{tenant_id}/backups/local,
//     /tenants/{tenant_id}/backups/local/{backup_id}/restore
//   - Health endpoints: /health, /ready, /metrics
//
// Features:
//
//   - TLS support
//   - Middleware chain: Recover, RequestID, RateLimit, RequestLog
//   - Graceful shutdown with configurable timeout
//   - Prometheus metrics integration
package httpserver
