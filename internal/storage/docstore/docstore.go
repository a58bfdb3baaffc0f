// Package docstore defines the tenant-scoped document store consumed by
// the backup engine.
//
// The hosted store behind the inventory application is an external
// collaborator; this package pins down the slice of its surface the
// engine relies on: per-tenant collection listing, and write batches
// with a hard per-batch operation ceiling and commit-or-fail-together
// semantics.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/larderhq/larder-go/internal/core/domain"
)

// DefaultBatchLimit is the store's hard per-batch operation ceiling.
// Mirrors the hosted backend's 500-operations-per-commit limit.
const DefaultBatchLimit = 500

// Common errors.
var (
	// ErrBatchLimitExceeded is returned by Commit when a batch carries
	// more operations than the store's ceiling allows.
	ErrBatchLimitExceeded = errors.New("docstore: batch operation limit exceeded")

	// ErrEmptyRecordID is returned by Commit when a write op carries a
	// record without an id to key it by.
	ErrEmptyRecordID = errors.New("docstore: record id is empty")
)

// Store is a tenant-scoped document store.
type Store interface {
	// List returns all records in the tenant's collection. The record id
	// is lifted out of store metadata into Record.ID.
	List(ctx context.Context, tenantID, collection string) ([]domain.Record, error)

	// ListIDs returns only the record ids in the tenant's collection.
	ListIDs(ctx context.Context, tenantID, collection string) ([]string, error)

	// NewBatch opens a write batch scoped to one tenant. Batches commit
	// atomically: either every operation applies or none does.
	NewBatch(tenantID string) Batch

	// BatchLimit returns the store's per-batch operation ceiling.
	BatchLimit() int

	// Close releases the store.
	Close() error
}

// Batch is a staged set of write operations against one tenant.
type Batch interface {
	// Set writes the record with full-overwrite semantics.
	Set(collection string, rec domain.Record)

	// Merge writes the record with field-level merge semantics: fields
	// on an existing record that the incoming record does not carry are
	// preserved.
	Merge(collection string, rec domain.Record)

	// Delete removes the record with the given id.
	Delete(collection, id string)

	// Len returns the number of staged operations.
	Len() int

	// Commit applies all staged operations atomically. A batch larger
	// than the store's ceiling fails with ErrBatchLimitExceeded without
	// applying anything.
	Commit(ctx context.Context) error
}

// MergeRecord combines an incoming record into an existing one with
// field-level merge semantics, returning the merged record. Neither
// input is mutated.
func MergeRecord(existing, incoming domain.Record) domain.Record {
	merged := existing.Clone()
	merged.ID = incoming.ID
	if incoming.CreatedAt != nil {
		t := *incoming.CreatedAt
		merged.CreatedAt = &t
	}
	if incoming.UpdatedAt != nil {
		t := *incoming.UpdatedAt
		merged.UpdatedAt = &t
	}
	if incoming.Date != nil {
		t := *incoming.Date
		merged.Date = &t
	}
	if len(incoming.Fields) > 0 && merged.Fields == nil {
		merged.Fields = make(map[string]any, len(incoming.Fields))
	}
	for k, v := range incoming.Fields {
		merged.Fields[k] = v
	}
	return merged
}

// ValidateOps performs the shared pre-commit checks: ceiling and record
// keys. Implementations call this before touching their backing store so
// an oversized or unkeyed batch fails without side effects.
func ValidateOps(ops []Op, limit int) error {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	if len(ops) > limit {
		return fmt.Errorf("%w: %d ops, limit %d", ErrBatchLimitExceeded, len(ops), limit)
	}
	for _, op := range ops {
		if op.ID == "" {
			return fmt.Errorf("%w: %s op in %q", ErrEmptyRecordID, op.Kind, op.Collection)
		}
	}
	return nil
}

// OpKind discriminates staged batch operations.
type OpKind string

// Batch operation kinds.
const (
	OpSet    OpKind = "set"
	OpMerge  OpKind = "merge"
	OpDelete OpKind = "delete"
)

// Op is one staged operation in a write batch.
type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Record     domain.Record // unset for deletes
}
