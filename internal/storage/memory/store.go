// Package memory provides an in-memory document store for Larder.
//
// It implements the docstore interfaces with a plain locked map. It
// backs the server's default mode and the engine's tests, where its
// fault-injection hooks simulate the degraded reads and failed batch
// commits the hosted backend produces in production.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/larderhq/larder-go/internal/core/domain"
	"github.com/larderhq/larder-go/internal/storage/docstore"
)

// Store is an in-memory, tenant-scoped document store.
type Store struct {
	mu    sync.RWMutex
	limit int

	// tenantID -> collection -> record id -> record
	data map[string]map[string]map[string]domain.Record

	// Fault injection for tests.
	denied     map[string]bool
	listErrs   map[string]error
	commitHook func(tenantID string, ops []docstore.Op) error
}

// Option configures the Store.
type Option func(*Store)

// WithBatchLimit overrides the per-batch operation ceiling.
func WithBatchLimit(limit int) Option {
	return func(s *Store) {
		s.limit = limit
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		limit:    docstore.DefaultBatchLimit,
		data:     make(map[string]map[string]map[string]domain.Record),
		denied:   make(map[string]bool),
		listErrs: make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all records in the tenant's collection, ordered by id.
func (s *Store) List(_ context.Context, tenantID, collection string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.denied[tenantID] {
		return nil, domain.ErrPermissionDenied.WithDetails("tenant " + tenantID)
	}
	if err := s.listErrs[tenantID+"/"+collection]; err != nil {
		return nil, err
	}

	records := s.data[tenantID][collection]
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListIDs returns the record ids in the tenant's collection, ordered.
func (s *Store) ListIDs(ctx context.Context, tenantID, collection string) ([]string, error) {
	records, err := s.List(ctx, tenantID, collection)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids, nil
}

// BatchLimit returns the per-batch operation ceiling.
func (s *Store) BatchLimit() int {
	return s.limit
}

// NewBatch opens a write batch for one tenant.
func (s *Store) NewBatch(tenantID string) docstore.Batch {
	return &batch{store: s, tenantID: tenantID}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Count returns the number of records in the tenant's collection.
func (s *Store) Count(tenantID, collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[tenantID][collection])
}

// Get returns one record, if present.
func (s *Store) Get(tenantID, collection, id string) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[tenantID][collection][id]
	if !ok {
		return domain.Record{}, false
	}
	return rec.Clone(), true
}

// Seed inserts records directly, bypassing batch accounting. Test setup.
func (s *Store) Seed(tenantID, collection string, records ...domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.put(tenantID, collection, rec.Clone())
	}
}

// DenyTenant makes every read for the tenant fail permission-denied.
func (s *Store) DenyTenant(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied[tenantID] = true
}

// AllowTenant clears a DenyTenant marker.
func (s *Store) AllowTenant(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.denied, tenantID)
}

// FailList makes List for one tenant collection return err. A nil err
// clears the fault.
func (s *Store) FailList(tenantID, collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tenantID + "/" + collection
	if err == nil {
		delete(s.listErrs, key)
		return
	}
	s.listErrs[key] = err
}

// SetCommitHook installs a hook invoked before each batch commit. A
// non-nil return fails the commit without applying any operation.
func (s *Store) SetCommitHook(fn func(tenantID string, ops []docstore.Op) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitHook = fn
}

// put stores a record under the caller-held write lock.
func (s *Store) put(tenantID, collection string, rec domain.Record) {
	tenant, ok := s.data[tenantID]
	if !ok {
		tenant = make(map[string]map[string]domain.Record)
		s.data[tenantID] = tenant
	}
	col, ok := tenant[collection]
	if !ok {
		col = make(map[string]domain.Record)
		tenant[collection] = col
	}
	col[rec.ID] = rec
}

// batch stages operations and applies them atomically on Commit.
type batch struct {
	store    *Store
	tenantID string
	ops      []docstore.Op
}

func (b *batch) Set(collection string, rec domain.Record) {
	b.ops = append(b.ops, docstore.Op{Kind: docstore.OpSet, Collection: collection, ID: rec.ID, Record: rec.Clone()})
}

func (b *batch) Merge(collection string, rec domain.Record) {
	b.ops = append(b.ops, docstore.Op{Kind: docstore.OpMerge, Collection: collection, ID: rec.ID, Record: rec.Clone()})
}

func (b *batch) Delete(collection, id string) {
	b.ops = append(b.ops, docstore.Op{Kind: docstore.OpDelete, Collection: collection, ID: id})
}

func (b *batch) Len() int {
	return len(b.ops)
}

func (b *batch) Commit(_ context.Context) error {
	if err := docstore.ValidateOps(b.ops, b.store.limit); err != nil {
		return err
	}

	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	if b.store.commitHook != nil {
		if err := b.store.commitHook(b.tenantID, b.ops); err != nil {
			return err
		}
	}

	for _, op := range b.ops {
		switch op.Kind {
		case docstore.OpSet:
			b.store.put(b.tenantID, op.Collection, op.Record)
		case docstore.OpMerge:
			if existing, ok := b.store.data[b.tenantID][op.Collection][op.ID]; ok {
				b.store.put(b.tenantID, op.Collection, docstore.MergeRecord(existing, op.Record))
			} else {
				b.store.put(b.tenantID, op.Collection, op.Record)
			}
		case docstore.OpDelete:
			delete(b.store.data[b.tenantID][op.Collection], op.ID)
		}
	}
	b.ops = b.ops[:0]
	return nil
}
