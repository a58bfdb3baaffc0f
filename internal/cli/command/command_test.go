package command

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/larderhq/larder-go/internal/core/domain"
	"github.com/larderhq/larder-go/internal/storage/cache"
	"github.com/larderhq/larder-go/internal/storage/snapfile"
	"github.com/larderhq/larder-go/internal/storage/sqlite"
)

// runApp runs the CLI with exit handling disabled so errors come back
// to the test instead of terminating the process.
func runApp(t *testing.T, args ...string) error {
	t.Helper()
	app := App()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app.Run(append([]string{"larder-cli"}, args...))
}

// seedStore writes records into the data directory's document store.
func seedStore(t *testing.T, dir, tenantID, collection string, ids ...string) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(dir, "larder.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	batch := store.NewBatch(tenantID)
	for _, id := range ids {
		batch.Set(collection, domain.Record{ID: id, Fields: map[string]any{"name": id}})
	}
	if err := batch.Commit(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

// storeIDs reads back record IDs from the data directory's store.
func storeIDs(t *testing.T, dir, tenantID, collection string) []string {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(dir, "larder.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ids, err := store.ListIDs(context.Background(), tenantID, collection)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	return ids
}

func TestExportCommand_WritesSnapshotFile(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir, "t1", domain.CollectionItems, "i1", "i2")

	out := filepath.Join(t.TempDir(), "out.json")
	if err := runApp(t, "--data-dir", dir, "export", "--label", "Home", "--file", out, "t1"); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	snap, err := snapfile.Read(out)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.Tenant.ID != "t1" || snap.Tenant.Label != "Home" {
		t.Errorf("tenant = %+v", snap.Tenant)
	}
	if len(snap.Collections[domain.CollectionItems]) != 2 {
		t.Errorf("items = %d, want 2", len(snap.Collections[domain.CollectionItems]))
	}
}

func TestExportCommand_MissingTenant(t *testing.T) {
	if err := runApp(t, "--data-dir", t.TempDir(), "export"); err == nil {
		t.Fatal("export without tenant should fail")
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	snap := domain.NewSnapshot(domain.Tenant{ID: "t1", Label: "Home"}, domain.Actor{ID: "u1"})
	if err := snapfile.Write(valid, snap); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	if err := runApp(t, "--data-dir", dir, "validate", valid); err != nil {
		t.Errorf("valid snapshot rejected: %v", err)
	}

	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte(`{"collections":{}}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := runApp(t, "--data-dir", dir, "validate", invalid); err == nil {
		t.Error("invalid snapshot accepted")
	}
}

func TestValidateCommand_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}

	err := runApp(t, "--data-dir", dir, "validate", path)
	if !domain.IsDomainError(err, domain.ErrSnapshotMalformed.Code) {
		t.Errorf("err = %v, want malformed snapshot", err)
	}
}

func TestImportCommand_Merge(t *testing.T) {
	srcDir := t.TempDir()
	seedStore(t, srcDir, "t1", domain.CollectionItems, "i1")
	seedStore(t, srcDir, "t1", domain.CollectionResidents, "r1")

	file := filepath.Join(t.TempDir(), "snap.json")
	if err := runApp(t, "--data-dir", srcDir, "export", "--file", file, "t1"); err != nil {
		t.Fatalf("export: %v", err)
	}

	dstDir := t.TempDir()
	if err := runApp(t, "--data-dir", dstDir, "import", "--tenant", "t2", "--mode", "merge", file); err != nil {
		t.Fatalf("import: %v", err)
	}

	ids := storeIDs(t, dstDir, "t2", domain.CollectionItems)
	if len(ids) != 1 || ids[0] != "i1" {
		t.Errorf("imported ids = %v", ids)
	}
}

func TestImportCommand_ReplaceRemovesAbsentRecords(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir, "t1", domain.CollectionItems, "keep")
	seedStore(t, dir, "t1", domain.CollectionResidents, "r1")

	file := filepath.Join(t.TempDir(), "snap.json")
	if err := runApp(t, "--data-dir", dir, "export", "--file", file, "t1"); err != nil {
		t.Fatalf("export: %v", err)
	}

	seedStore(t, dir, "t1", domain.CollectionItems, "extra")

	if err := runApp(t, "--data-dir", dir, "import", "--tenant", "t1", "--mode", "replace", "--force", file); err != nil {
		t.Fatalf("import: %v", err)
	}

	ids := storeIDs(t, dir, "t1", domain.CollectionItems)
	if len(ids) != 1 || ids[0] != "keep" {
		t.Errorf("ids after replace = %v", ids)
	}
}

func TestImportCommand_UnknownMode(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "snap.json")
	snap := domain.NewSnapshot(domain.Tenant{ID: "t1"}, domain.Actor{})
	if err := snapfile.Write(file, snap); err != nil {
		t.Fatal(err)
	}

	err := runApp(t, "--data-dir", dir, "import", "--tenant", "t1", "--mode", "upsert", file)
	if !domain.IsDomainError(err, domain.ErrInvalidArgument.Code) {
		t.Errorf("err = %v, want invalid argument", err)
	}
}

func TestLocalBackupAndRestore(t *testing.T) {
	dir := t.TempDir()
	seedStore(t, dir, "t1", domain.CollectionItems, "i1")
	seedStore(t, dir, "t1", domain.CollectionResidents, "r1")

	if err := runApp(t, "--data-dir", dir, "local", "backup", "--label", "Home", "t1"); err != nil {
		t.Fatalf("local backup: %v", err)
	}

	backupID := cachedBackupID(t, dir, "t1")

	// Add a record the snapshot does not carry, then restore over it.
	seedStore(t, dir, "t1", domain.CollectionItems, "extra")

	if err := runApp(t, "--data-dir", dir, "local", "restore",
		"--tenant", "t1", "--mode", "replace", "--force", backupID); err != nil {
		t.Fatalf("local restore: %v", err)
	}

	ids := storeIDs(t, dir, "t1", domain.CollectionItems)
	if len(ids) != 1 || ids[0] != "i1" {
		t.Errorf("ids after restore = %v", ids)
	}
}

func TestLocalList_EmptyTenant(t *testing.T) {
	if err := runApp(t, "--data-dir", t.TempDir(), "local", "list", "t1"); err != nil {
		t.Errorf("list on empty cache failed: %v", err)
	}
}

// cachedBackupID opens the cache directly and returns the tenant's
// newest backup ID.
func cachedBackupID(t *testing.T, dir, tenantID string) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ca, err := cache.New(cache.Config{Dir: filepath.Join(dir, "backups")}, logger)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer ca.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := ca.ListFor(ctx, tenantID)
	if err != nil {
		t.Fatalf("list cache: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no cached backups found")
	}
	return entries[0].ID
}
