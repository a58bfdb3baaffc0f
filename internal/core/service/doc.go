// Package service provides the backup domain services for Larder.
//
// Domain services contain the engine's business logic and orchestrate
// operations on domain models. They define interfaces for storage
// dependencies, allowing for dependency injection and testability.
//
// This package contains:
//
//   - BackupService: snapshot export, validation, two-mode import, and
//     the local-cache entry points
//   - AutoBackup: the timer-driven scheduler that periodically exports
//     and caches a tenant's data while its session is active
//
// Expected conditions (empty collections, permission denial, per-chunk
// write failures) are encoded in structured results, never raised across
// the service boundary.
package service
