package service

import (
	"context"
	"time"

	"github.com/larderhq/larder-go/internal/core/domain"
)

// Export reads every collection for the tenant and assembles a complete
// snapshot. Collections that cannot be read degrade to empty sequences
// with a warning; the export still succeeds. The one exception is a
// tenant the caller cannot read at all: when every collection read fails
// permission-denied, Export returns domain.ErrPermissionDenied so the
// caller can tell a revoked session apart from an empty household.
func (s *BackupService) Export(ctx context.Context, tenantID, tenantLabel string, actor domain.Actor) (*domain.Snapshot, error) {
	if tenantID == "" {
		return nil, domain.ErrMissingArgument.WithDetails("tenant id is required")
	}
	defer s.lockTenant(tenantID)()

	start := time.Now()
	snap := domain.NewSnapshot(domain.Tenant{ID: tenantID, Label: tenantLabel}, actor)

	denied := 0
	for _, name := range domain.CollectionNames() {
		records, err := s.store.List(ctx, tenantID, name)
		if err != nil {
			if domain.IsPermissionDenied(err) {
				denied++
			}
			s.logger.Warn("collection read failed, exporting as empty",
				"tenant_id", tenantID,
				"collection", name,
				"error", err,
			)
			continue
		}
		snap.Collections[name] = records
	}
	if denied == len(domain.CollectionNames()) {
		s.metrics.ObserveExport("denied", time.Since(start))
		return nil, domain.ErrPermissionDenied.WithDetails("tenant " + tenantID)
	}

	s.metrics.ObserveExport("ok", time.Since(start))
	s.logger.Info("snapshot exported",
		"tenant_id", tenantID,
		"records", snap.TotalRecords(),
		"duration", time.Since(start),
	)
	return snap, nil
}
