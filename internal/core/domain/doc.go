// Package domain defines the core domain models for Larder.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - Snapshot: portable, versioned copy of one tenant's collections
//   - Record: a single document with typed temporal fields
//   - Tenant, Actor: identity value objects
//   - Errors: domain-specific error definitions
//
// Snapshots are immutable once constructed; consumers that need to
// modify one operate on a Clone.
package domain
