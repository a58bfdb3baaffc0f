package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/larderhq/larder-go/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExport_CollectsAllCollections(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	store.Seed("t1", domain.CollectionItems,
		domain.Record{ID: "i1", Fields: map[string]any{"name": "salt"}},
		domain.Record{ID: "i2", Fields: map[string]any{"name": "rice"}},
	)
	store.Seed("t1", domain.CollectionTags, domain.Record{ID: "g1"})
	store.Seed("t2", domain.CollectionItems, domain.Record{ID: "other"})

	snap, err := svc.Export(ctx, "t1", "Home", domain.Actor{ID: "u1", Label: "Ana"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if snap.FormatVersion != domain.FormatVersion {
		t.Fatalf("FormatVersion = %q", snap.FormatVersion)
	}
	if snap.Tenant.ID != "t1" || snap.Tenant.Label != "Home" {
		t.Fatalf("Tenant = %+v", snap.Tenant)
	}
	if snap.ExportedBy.ID != "u1" {
		t.Fatalf("ExportedBy = %+v", snap.ExportedBy)
	}
	for _, name := range domain.CollectionNames() {
		if _, ok := snap.Collections[name]; !ok {
			t.Fatalf("collection %q missing from export", name)
		}
	}
	if snap.RecordCount(domain.CollectionItems) != 2 {
		t.Fatalf("items = %d, want 2", snap.RecordCount(domain.CollectionItems))
	}
	if snap.RecordCount(domain.CollectionTags) != 1 {
		t.Fatalf("tags = %d, want 1", snap.RecordCount(domain.CollectionTags))
	}
}

func TestExport_DegradedCollectionExportsEmpty(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.Seed("t1", domain.CollectionItems, domain.Record{ID: "i1"})
	store.FailList("t1", domain.CollectionUsageLogs, errors.New("backend timeout"))

	snap, err := svc.Export(context.Background(), "t1", "Home", domain.Actor{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if snap.RecordCount(domain.CollectionUsageLogs) != 0 {
		t.Fatal("unreadable collection should export as empty")
	}
	if snap.RecordCount(domain.CollectionItems) != 1 {
		t.Fatal("readable collections must still export")
	}
}

func TestExport_SingleDeniedCollectionStillSucceeds(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.Seed("t1", domain.CollectionItems, domain.Record{ID: "i1"})
	store.FailList("t1", domain.CollectionCustomIcons, domain.ErrPermissionDenied)

	snap, err := svc.Export(context.Background(), "t1", "Home", domain.Actor{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if snap.RecordCount(domain.CollectionCustomIcons) != 0 {
		t.Fatal("denied collection should export as empty")
	}
}

func TestExport_FullyDeniedTenant(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.DenyTenant("t1")

	_, err := svc.Export(context.Background(), "t1", "Home", domain.Actor{})
	if !domain.IsPermissionDenied(err) {
		t.Fatalf("err = %v, want permission denied", err)
	}
}

func TestExport_MissingTenantID(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Export(context.Background(), "", "Home", domain.Actor{})
	if !errors.Is(err, domain.ErrMissingArgument) {
		t.Fatalf("err = %v, want ErrMissingArgument", err)
	}
}
