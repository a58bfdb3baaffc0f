package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/larderhq/larder-go/internal/core/domain"
	"github.com/larderhq/larder-go/internal/storage/docstore"
	"github.com/larderhq/larder-go/internal/telemetry/metric"
)

// BackupEntry is one automatically captured snapshot held by the local
// cache. Entries are created by the cache on save and never mutated;
// restore does not delete the entry.
type BackupEntry struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenantId"`
	CreatedAt time.Time        `json:"createdAt"`
	Snapshot  *domain.Snapshot `json:"snapshot"`
}

// LocalCache defines the bounded, per-tenant snapshot cache the service
// depends on.
type LocalCache interface {
	// Save appends a new entry for the tenant and synchronously evicts
	// entries beyond the cache's per-tenant bound, oldest first.
	Save(ctx context.Context, tenantID string, snap *domain.Snapshot) (*BackupEntry, error)

	// ListFor returns the tenant's entries sorted newest-first. Pure
	// read: never triggers eviction.
	ListFor(ctx context.Context, tenantID string) ([]*BackupEntry, error)

	// Get returns one entry by id, or domain.ErrBackupNotFound.
	Get(ctx context.Context, id string) (*BackupEntry, error)
}

// BackupService implements snapshot export, validation, import, and the
// local-cache entry points.
type BackupService struct {
	store   docstore.Store
	cache   LocalCache
	logger  *slog.Logger
	metrics *metric.Metrics

	// tenantLocks serializes export and import per tenant, so a
	// scheduled capture firing mid-restore never reads a half-replayed
	// household.
	tenantLocks sync.Map // tenant id -> *sync.Mutex
}

// Option configures the BackupService.
type Option func(*BackupService)

// WithMetrics attaches backup metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(s *BackupService) {
		s.metrics = m
	}
}

// NewBackupService creates a new BackupService.
func NewBackupService(store docstore.Store, cache LocalCache, logger *slog.Logger, opts ...Option) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &BackupService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockTenant takes the tenant's advisory lock and returns its release.
func (s *BackupService) lockTenant(tenantID string) func() {
	mu, _ := s.tenantLocks.LoadOrStore(tenantID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// SaveLocalBackup exports the tenant's data and appends it to the local
// cache, returning the new entry.
func (s *BackupService) SaveLocalBackup(ctx context.Context, tenantID, tenantLabel string, actor domain.Actor) (*BackupEntry, error) {
	snap, err := s.Export(ctx, tenantID, tenantLabel, actor)
	if err != nil {
		return nil, err
	}
	entry, err := s.cache.Save(ctx, tenantID, snap)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return entry, nil
}

// ListLocalBackups returns the tenant's cached entries, newest first.
func (s *BackupService) ListLocalBackups(ctx context.Context, tenantID string) ([]*BackupEntry, error) {
	if tenantID == "" {
		return nil, domain.ErrMissingArgument.WithDetails("tenant id is required")
	}
	entries, err := s.cache.ListFor(ctx, tenantID)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return entries, nil
}

// GetLocalBackup returns one cached entry by id.
func (s *BackupService) GetLocalBackup(ctx context.Context, id string) (*BackupEntry, error) {
	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("backup id is required")
	}
	return s.cache.Get(ctx, id)
}

// RestoreLocalBackup replays a cached snapshot into the tenant's
// collections. The cache entry is retained after a restore.
func (s *BackupService) RestoreLocalBackup(ctx context.Context, backupID, tenantID string, mode ImportMode) (*ImportResult, error) {
	if tenantID == "" {
		return nil, domain.ErrMissingArgument.WithDetails("tenant id is required")
	}
	entry, err := s.cache.Get(ctx, backupID)
	if err != nil {
		return nil, err
	}

	result := ValidateSnapshot(entry.Snapshot)
	if !result.IsValid {
		return nil, domain.ErrSnapshotValidation.WithDetails(strings.Join(result.Errors, "; "))
	}
	return s.Import(ctx, entry.Snapshot, tenantID, mode)
}
