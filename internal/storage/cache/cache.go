// Package cache provides the Badger-backed local backup cache.
//
// The cache holds the most recent auto-captured snapshots per tenant,
// bounded by a per-tenant entry limit. Saving beyond the limit evicts
// the oldest entries in the same transaction, so readers never observe
// more entries than the bound allows.
//
// Keys:
//
//	bkp:{tenant}:{ulid}  ->  entry body (JSON, optionally encrypted)
//	bid:{ulid}           ->  entry key (lookup index for Get)
//
// The tenant id is escaped so a ':' inside it cannot fold one tenant's
// prefix into another's. ULIDs sort lexicographically by creation time,
// so a forward prefix scan yields oldest-first and eviction is a prefix
// walk.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"

	"github.com/larderhq/larder-go/internal/core/domain"
	"github.com/larderhq/larder-go/internal/core/service"
	"github.com/larderhq/larder-go/internal/telemetry/metric"
	"github.com/larderhq/larder-go/pkg/crypto/adaptive"
)

// DefaultMaxPerTenant is the bound on cached entries per tenant.
const DefaultMaxPerTenant = 5

const (
	entryPrefix = "bkp:"
	indexPrefix = "bid:"
)

// Config holds the cache's tunables.
type Config struct {
	// Dir is the Badger data directory. Required.
	Dir string

	// MaxPerTenant bounds cached entries per tenant. Zero means
	// DefaultMaxPerTenant.
	MaxPerTenant int

	// GCInterval is the value-log GC period. Zero means 10 minutes.
	GCInterval time.Duration

	// SyncWrites forces fsync on every write.
	SyncWrites bool

	// EncryptionKey, when set, encrypts entry bodies at rest. Must be
	// 16, 24, or 32 bytes.
	EncryptionKey []byte
}

// Cache is the Badger-backed local backup cache. It implements
// service.LocalCache.
type Cache struct {
	db           *badger.DB
	logger       *slog.Logger
	metrics      *metric.Metrics
	maxPerTenant int
	gcInterval   time.Duration
	cipher       adaptive.Cipher

	stopCh chan struct{}
	doneCh chan struct{}
}

// Option configures the Cache.
type Option func(*Cache)

// WithMetrics attaches cache metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New opens the cache at cfg.Dir.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Cache, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("cache: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{
		logger:       logger,
		maxPerTenant: cfg.MaxPerTenant,
		gcInterval:   cfg.GCInterval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	if c.maxPerTenant <= 0 {
		c.maxPerTenant = DefaultMaxPerTenant
	}
	if c.gcInterval <= 0 {
		c.gcInterval = 10 * time.Minute
	}
	for _, opt := range opts {
		opt(c)
	}

	if len(cfg.EncryptionKey) > 0 {
		cipher, err := adaptive.New(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("cache: encryption key: %w", err)
		}
		c.cipher = cipher
	}

	badgerOpts := badger.DefaultOptions(cfg.Dir)
	badgerOpts.Logger = &badgerLogger{logger: logger}
	badgerOpts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	c.db = db

	go c.gcLoop()

	logger.Info("backup cache opened",
		"dir", cfg.Dir,
		"max_per_tenant", c.maxPerTenant,
		"encrypted", c.cipher != nil,
	)
	return c, nil
}

// Save stores a new entry for the tenant and evicts the oldest entries
// beyond the per-tenant bound in the same transaction.
func (c *Cache) Save(_ context.Context, tenantID string, snap *domain.Snapshot) (*service.BackupEntry, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("cache: tenant id is required")
	}
	if snap == nil {
		return nil, fmt.Errorf("cache: snapshot is required")
	}

	entry := &service.BackupEntry{
		ID:        ulid.Make().String(),
		TenantID:  tenantID,
		CreatedAt: time.Now().UTC(),
		Snapshot:  snap,
	}
	body, err := c.encode(entry)
	if err != nil {
		return nil, err
	}

	key := entryKey(tenantID, entry.ID)
	evicted := 0
	save := func(txn *badger.Txn) error {
		if err := txn.Set(key, body); err != nil {
			return err
		}
		if err := txn.Set(indexKey(entry.ID), key); err != nil {
			return err
		}

		// Walk the tenant's entries oldest-first and drop the overflow.
		// The iterator sees this transaction's pending write, so the new
		// entry is already counted; being the newest ULID it sorts last
		// and is never evicted here.
		keys, err := tenantKeys(txn, tenantID)
		if err != nil {
			return err
		}
		overflow := len(keys) - c.maxPerTenant
		for i := 0; i < overflow && i < len(keys); i++ {
			if err := txn.Delete(keys[i]); err != nil {
				return err
			}
			if err := txn.Delete(indexKey(entryID(keys[i]))); err != nil {
				return err
			}
			evicted++
		}
		return nil
	}

	// Concurrent saves for one tenant can conflict on the eviction scan;
	// retry the transaction a few times before giving up.
	for attempt := 0; ; attempt++ {
		evicted = 0
		err = c.db.Update(save)
		if !errors.Is(err, badger.ErrConflict) || attempt >= 2 {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("cache: save: %w", err)
	}

	c.metrics.IncBackupSaved()
	for i := 0; i < evicted; i++ {
		c.metrics.IncBackupEvicted()
	}
	if evicted > 0 {
		c.logger.Debug("evicted old backups",
			"tenant_id", tenantID,
			"evicted", evicted,
		)
	}
	return entry, nil
}

// ListFor returns the tenant's entries, newest first. Listing never
// evicts.
func (c *Cache) ListFor(_ context.Context, tenantID string) ([]*service.BackupEntry, error) {
	var entries []*service.BackupEntry
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = tenantPrefix(tenantID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			body, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			entry, err := c.decode(body)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache: list: %w", err)
	}

	// The scan yields oldest-first; callers want newest-first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Get returns one entry by id via the index.
func (c *Cache) Get(_ context.Context, id string) (*service.BackupEntry, error) {
	var entry *service.BackupEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		body, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		entry, err = c.decode(body)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrBackupNotFound.WithDetails(id)
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get: %w", err)
	}
	return entry, nil
}

// Close stops the GC loop and closes the database.
func (c *Cache) Close() error {
	close(c.stopCh)
	<-c.doneCh
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("cache: close db: %w", err)
	}
	return nil
}

func (c *Cache) encode(entry *service.BackupEntry) ([]byte, error) {
	body, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("cache: encode entry: %w", err)
	}
	if c.cipher == nil {
		return body, nil
	}
	sealed, err := c.cipher.Encrypt(body, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: encrypt entry: %w", err)
	}
	return sealed, nil
}

func (c *Cache) decode(body []byte) (*service.BackupEntry, error) {
	if c.cipher != nil {
		opened, err := c.cipher.Decrypt(body, nil)
		if err != nil {
			return nil, fmt.Errorf("cache: decrypt entry: %w", err)
		}
		body = opened
	}
	var entry service.BackupEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("cache: decode entry: %w", err)
	}
	return &entry, nil
}

// gcLoop runs periodic value-log garbage collection.
func (c *Cache) gcLoop() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for {
				if err := c.db.RunValueLogGC(0.5); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						c.logger.Error("cache gc failed", "error", err)
					}
					break
				}
			}
		case <-c.stopCh:
			return
		}
	}
}

// tenantEscaper keeps the key separator out of escaped tenant ids.
var tenantEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func tenantPrefix(tenantID string) []byte {
	return []byte(entryPrefix + tenantEscaper.Replace(tenantID) + ":")
}

func entryKey(tenantID, id string) []byte {
	return append(tenantPrefix(tenantID), id...)
}

func indexKey(id string) []byte {
	return []byte(indexPrefix + id)
}

// entryID extracts the ULID from an entry key.
func entryID(key []byte) string {
	s := string(key)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return s[i+1:]
		}
	}
	return s
}

// tenantKeys returns the tenant's entry keys in ascending (oldest
// first) order, as seen by the transaction.
func tenantKeys(txn *badger.Txn, tenantID string) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = tenantPrefix(tenantID)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
