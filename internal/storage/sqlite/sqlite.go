// Package sqlite provides a SQLite-backed document store.
//
// It persists records as JSON bodies in a single table keyed by
// (tenant_id, collection, id), giving the server a durable local
// backend when no hosted store is configured. Batches map to one
// transaction each, which gives commit-or-fail-together semantics for
// free.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/larderhq/larder-go/internal/core/domain"
	"github.com/larderhq/larder-go/internal/storage/docstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	tenant_id  TEXT NOT NULL,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	PRIMARY KEY (tenant_id, collection, id)
);
`

// Store is a SQLite-backed docstore.Store.
type Store struct {
	db    *sql.DB
	limit int
}

// Option configures the Store.
type Option func(*Store)

// WithBatchLimit overrides the per-batch operation ceiling.
func WithBatchLimit(limit int) Option {
	return func(s *Store) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// Open opens or creates the database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string, opts ...Option) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	if path == ":memory:" {
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Each pool connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}

	s := &Store{db: db, limit: docstore.DefaultBatchLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns all records in the tenant's collection, ordered by id.
func (s *Store) List(ctx context.Context, tenantID, collection string) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM records WHERE tenant_id = ? AND collection = ? ORDER BY id`,
		tenantID, collection)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list %s/%s: %w", tenantID, collection, err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		var rec domain.Record
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("sqlite: decode record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list %s/%s: %w", tenantID, collection, err)
	}
	return records, nil
}

// ListIDs returns the record ids in the tenant's collection, ordered.
func (s *Store) ListIDs(ctx context.Context, tenantID, collection string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM records WHERE tenant_id = ? AND collection = ? ORDER BY id`,
		tenantID, collection)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list ids %s/%s: %w", tenantID, collection, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list ids %s/%s: %w", tenantID, collection, err)
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

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// batch stages operations and applies them in one transaction.
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

func (b *batch) Commit(ctx context.Context) error {
	if err := docstore.ValidateOps(b.ops, b.store.limit); err != nil {
		return err
	}

	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	for _, op := range b.ops {
		switch op.Kind {
		case docstore.OpSet:
			if err := writeRecord(ctx, tx, b.tenantID, op.Collection, op.Record); err != nil {
				return err
			}
		case docstore.OpMerge:
			existing, found, err := readRecord(ctx, tx, b.tenantID, op.Collection, op.ID)
			if err != nil {
				return err
			}
			rec := op.Record
			if found {
				rec = docstore.MergeRecord(existing, op.Record)
			}
			if err := writeRecord(ctx, tx, b.tenantID, op.Collection, rec); err != nil {
				return err
			}
		case docstore.OpDelete:
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM records WHERE tenant_id = ? AND collection = ? AND id = ?`,
				b.tenantID, op.Collection, op.ID); err != nil {
				return fmt.Errorf("sqlite: delete %s: %w", op.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	b.ops = b.ops[:0]
	return nil
}

func writeRecord(ctx context.Context, tx *sql.Tx, tenantID, collection string, rec domain.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("sqlite: encode record %s: %w", rec.ID, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (tenant_id, collection, id, body) VALUES (?, ?, ?, ?)
		 ON CONFLICT (tenant_id, collection, id) DO UPDATE SET body = excluded.body`,
		tenantID, collection, rec.ID, string(body))
	if err != nil {
		return fmt.Errorf("sqlite: write record %s: %w", rec.ID, err)
	}
	return nil
}

func readRecord(ctx context.Context, tx *sql.Tx, tenantID, collection, id string) (domain.Record, bool, error) {
	var body string
	err := tx.QueryRowContext(ctx,
		`SELECT body FROM records WHERE tenant_id = ? AND collection = ? AND id = ?`,
		tenantID, collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return domain.Record{}, false, nil
	}
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("sqlite: read record %s: %w", id, err)
	}
	var rec domain.Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return domain.Record{}, false, fmt.Errorf("sqlite: decode record %s: %w", id, err)
	}
	return rec, true, nil
}
