package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/larderhq/larder-go/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestCache(t *testing.T, cfg Config) *Cache {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	c, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return c
}

func testSnapshot(tenantID string, itemID string) *domain.Snapshot {
	snap := domain.NewSnapshot(domain.Tenant{ID: tenantID, Label: "Home"}, domain.Actor{ID: "u1"})
	snap.Collections[domain.CollectionItems] = []domain.Record{
		{ID: itemID, Fields: map[string]any{"name": "salt"}},
	}
	return snap
}

func TestCache_SaveAndGet(t *testing.T) {
	c := openTestCache(t, Config{})
	ctx := context.Background()

	entry, err := c.Save(ctx, "t1", testSnapshot("t1", "i1"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if entry.ID == "" || entry.TenantID != "t1" || entry.CreatedAt.IsZero() {
		t.Fatalf("entry = %+v", entry)
	}

	got, err := c.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TenantID != "t1" {
		t.Fatalf("got.TenantID = %q", got.TenantID)
	}
	if got.Snapshot.RecordCount(domain.CollectionItems) != 1 {
		t.Fatalf("snapshot items = %d, want 1", got.Snapshot.RecordCount(domain.CollectionItems))
	}
	if got.Snapshot.Collections[domain.CollectionItems][0].Fields["name"] != "salt" {
		t.Fatal("record fields lost in the round trip")
	}
}

func TestCache_GetMissing(t *testing.T) {
	c := openTestCache(t, Config{})
	_, err := c.Get(context.Background(), "01JUNKJUNKJUNKJUNKJUNKJUNK")
	if !errors.Is(err, domain.ErrBackupNotFound) {
		t.Fatalf("err = %v, want ErrBackupNotFound", err)
	}
}

func TestCache_EvictsBeyondBound(t *testing.T) {
	c := openTestCache(t, Config{MaxPerTenant: 3})
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		entry, err := c.Save(ctx, "t1", testSnapshot("t1", fmt.Sprintf("i%d", i)))
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		ids = append(ids, entry.ID)
	}

	entries, err := c.ListFor(ctx, "t1")
	if err != nil {
		t.Fatalf("ListFor: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("cache holds %d entries, want 3", len(entries))
	}
	// Newest first: saves 4, 3, 2 survive.
	for i, want := range []string{ids[4], ids[3], ids[2]} {
		if entries[i].ID != want {
			t.Fatalf("entries[%d].ID = %s, want %s", i, entries[i].ID, want)
		}
	}

	// Evicted entries are gone from the index too.
	for _, id := range ids[:2] {
		if _, err := c.Get(ctx, id); !errors.Is(err, domain.ErrBackupNotFound) {
			t.Fatalf("evicted entry %s still readable: %v", id, err)
		}
	}
}

func TestCache_ListDoesNotEvict(t *testing.T) {
	c := openTestCache(t, Config{MaxPerTenant: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.Save(ctx, "t1", testSnapshot("t1", fmt.Sprintf("i%d", i))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		entries, err := c.ListFor(ctx, "t1")
		if err != nil {
			t.Fatalf("ListFor: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("ListFor pass %d = %d entries, want 2", i, len(entries))
		}
	}
}

func TestCache_TenantsAreIsolated(t *testing.T) {
	c := openTestCache(t, Config{MaxPerTenant: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.Save(ctx, "t1", testSnapshot("t1", "a")); err != nil {
			t.Fatalf("Save t1: %v", err)
		}
	}
	if _, err := c.Save(ctx, "t2", testSnapshot("t2", "b")); err != nil {
		t.Fatalf("Save t2: %v", err)
	}

	// t2's save must not evict t1's entries.
	t1, _ := c.ListFor(ctx, "t1")
	t2, _ := c.ListFor(ctx, "t2")
	if len(t1) != 2 || len(t2) != 1 {
		t.Fatalf("t1 = %d entries, t2 = %d entries", len(t1), len(t2))
	}

	none, err := c.ListFor(ctx, "t3")
	if err != nil {
		t.Fatalf("ListFor empty tenant: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("unknown tenant has %d entries", len(none))
	}
}

func TestCache_SeparatorInTenantIDStaysIsolated(t *testing.T) {
	c := openTestCache(t, Config{MaxPerTenant: 2})
	ctx := context.Background()

	// "a:b" must not fold into tenant "a"'s key prefix.
	if _, err := c.Save(ctx, "a:b", testSnapshot("a:b", "x")); err != nil {
		t.Fatalf("Save a:b: %v", err)
	}
	if _, err := c.Save(ctx, "a", testSnapshot("a", "y")); err != nil {
		t.Fatalf("Save a: %v", err)
	}

	forA, err := c.ListFor(ctx, "a")
	if err != nil {
		t.Fatalf("ListFor a: %v", err)
	}
	if len(forA) != 1 || forA[0].TenantID != "a" {
		t.Fatalf("ListFor(a) = %+v, want only tenant a", forA)
	}

	forAB, err := c.ListFor(ctx, "a:b")
	if err != nil {
		t.Fatalf("ListFor a:b: %v", err)
	}
	if len(forAB) != 1 || forAB[0].TenantID != "a:b" {
		t.Fatalf("ListFor(a:b) = %+v, want only tenant a:b", forAB)
	}

	// Eviction counts per tenant, not per colliding prefix: filling
	// "a" to its bound leaves "a:b" untouched.
	for i := 0; i < 3; i++ {
		if _, err := c.Save(ctx, "a", testSnapshot("a", fmt.Sprintf("y%d", i))); err != nil {
			t.Fatalf("Save a #%d: %v", i, err)
		}
	}
	forAB, _ = c.ListFor(ctx, "a:b")
	if len(forAB) != 1 {
		t.Fatalf("tenant a's eviction removed a:b entries, have %d", len(forAB))
	}
}

func TestCache_EncryptedRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	dir := t.TempDir()
	c := openTestCache(t, Config{Dir: dir, EncryptionKey: key})
	ctx := context.Background()

	entry, err := c.Save(ctx, "t1", testSnapshot("t1", "i1"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := c.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Snapshot.RecordCount(domain.CollectionItems) != 1 {
		t.Fatal("encrypted entry did not round trip")
	}
}

func TestCache_BadEncryptionKey(t *testing.T) {
	_, err := New(Config{Dir: t.TempDir(), EncryptionKey: []byte("short")}, testLogger())
	if err == nil {
		t.Fatal("short key accepted")
	}
}

func TestCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Config{Dir: dir}, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	entry, err := c.Save(context.Background(), "t1", testSnapshot("t1", "i1"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openTestCache(t, Config{Dir: dir})
	got, err := reopened.Get(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.TenantID != "t1" {
		t.Fatalf("got = %+v", got)
	}
}
