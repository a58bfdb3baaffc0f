// Package metric provides Prometheus metrics for Larder.
//
// Metrics cover the backup engine's moving parts:
//
//   - Export and import durations and outcomes
//   - Auto-backup run outcomes
//   - Local cache saves and evictions
//   - HTTP request counts and latencies
//
// All instruments live in one Metrics value registered on a private
// registry; Handler exposes it at /metrics in Prometheus format. Every
// recording method tolerates a nil receiver, so components that run
// without telemetry skip the instrumentation without guards.
package metric
