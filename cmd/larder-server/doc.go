// Package main provides the entry point for larder-server.
//
// The server is the core Larder service that provides:
//
//   - HTTP/HTTPS API for snapshot export, validation, and import
//   - A bounded local backup cache per tenant
//   - Automatic periodic backups for configured tenants
//
// Usage:
//
//	larder-server [flags]
//	larder-server --config /path/to/config.yaml
//
// The server loads configuration, initializes storage and telemetry,
// and starts the HTTP listener.
package main
