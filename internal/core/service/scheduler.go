package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/larderhq/larder-go/internal/core/domain"
)

// Auto-backup timing defaults. The first capture waits out the initial
// delay so a session that signs in and immediately leaves never pays
// for an export.
const (
	DefaultAutoInitialDelay = 1 * time.Minute
	DefaultAutoInterval     = 5 * time.Minute
)

// AutoBackup periodically exports each registered tenant's data into
// the local cache. One goroutine runs per tenant between Start and
// Stop. When a tenant's export fails permission-denied the capture is
// skipped quietly and the next tick retries: denial is routine (a
// revoked or expired session) and can lift again, so only Stop ends a
// schedule.
type AutoBackup struct {
	svc          *BackupService
	logger       *slog.Logger
	initialDelay time.Duration
	interval     time.Duration

	mu      sync.Mutex
	tenants map[string]*tenantLoop
}

type tenantLoop struct {
	stopCh chan struct{}
	doneCh chan struct{}
}

// AutoOption configures the AutoBackup scheduler.
type AutoOption func(*AutoBackup)

// WithAutoInitialDelay overrides the delay before a tenant's first
// capture.
func WithAutoInitialDelay(d time.Duration) AutoOption {
	return func(a *AutoBackup) {
		if d > 0 {
			a.initialDelay = d
		}
	}
}

// WithAutoInterval overrides the period between captures.
func WithAutoInterval(d time.Duration) AutoOption {
	return func(a *AutoBackup) {
		if d > 0 {
			a.interval = d
		}
	}
}

// NewAutoBackup creates the scheduler. Loops start only via Start.
func NewAutoBackup(svc *BackupService, logger *slog.Logger, opts ...AutoOption) *AutoBackup {
	if logger == nil {
		logger = slog.Default()
	}
	a := &AutoBackup{
		svc:          svc,
		logger:       logger,
		initialDelay: DefaultAutoInitialDelay,
		interval:     DefaultAutoInterval,
		tenants:      make(map[string]*tenantLoop),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start begins the backup loop for a tenant. Starting a tenant that is
// already running is a no-op.
func (a *AutoBackup) Start(tenantID, tenantLabel string, actor domain.Actor) {
	if tenantID == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, running := a.tenants[tenantID]; running {
		return
	}
	t := &tenantLoop{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	a.tenants[tenantID] = t
	go a.run(t, tenantID, tenantLabel, actor)
	a.logger.Info("auto backup started",
		"tenant_id", tenantID,
		"initial_delay", a.initialDelay,
		"interval", a.interval,
	)
}

// Stop ends the backup loop for a tenant and waits for it to finish.
// Stopping a tenant that is not running is a no-op.
func (a *AutoBackup) Stop(tenantID string) {
	a.mu.Lock()
	t, running := a.tenants[tenantID]
	if running {
		delete(a.tenants, tenantID)
	}
	a.mu.Unlock()
	if !running {
		return
	}
	close(t.stopCh)
	<-t.doneCh
	a.logger.Info("auto backup stopped", "tenant_id", tenantID)
}

// StopAll ends every running loop. Called on shutdown.
func (a *AutoBackup) StopAll() {
	a.mu.Lock()
	loops := a.tenants
	a.tenants = make(map[string]*tenantLoop)
	a.mu.Unlock()

	for _, t := range loops {
		close(t.stopCh)
	}
	for _, t := range loops {
		<-t.doneCh
	}
}

// IsActive reports whether a tenant's loop is running.
func (a *AutoBackup) IsActive(tenantID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, running := a.tenants[tenantID]
	return running
}

func (a *AutoBackup) run(t *tenantLoop, tenantID, tenantLabel string, actor domain.Actor) {
	defer close(t.doneCh)

	timer := time.NewTimer(a.initialDelay)
	defer timer.Stop()
	select {
	case <-t.stopCh:
		return
	case <-timer.C:
	}
	a.capture(tenantID, tenantLabel, actor)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			a.capture(tenantID, tenantLabel, actor)
		}
	}
}

// capture performs one backup. A permission-denied export is skipped
// without logging noise; the next tick is the only retry.
func (a *AutoBackup) capture(tenantID, tenantLabel string, actor domain.Actor) {
	entry, err := a.svc.SaveLocalBackup(context.Background(), tenantID, tenantLabel, actor)
	if err != nil {
		if domain.IsPermissionDenied(err) {
			a.svc.metrics.IncAutoBackup("denied")
			a.logger.Debug("tenant not readable, skipping capture", "tenant_id", tenantID)
			return
		}
		a.svc.metrics.IncAutoBackup("error")
		a.logger.Warn("auto backup failed", "tenant_id", tenantID, "error", err)
		return
	}

	a.svc.metrics.IncAutoBackup("ok")
	a.logger.Debug("auto backup saved",
		"tenant_id", tenantID,
		"backup_id", entry.ID,
		"records", entry.Snapshot.TotalRecords(),
	)
}
