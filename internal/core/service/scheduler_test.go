package service

import (
	"testing"
	"time"

	"github.com/larderhq/larder-go/internal/core/domain"
)

func newTestScheduler(svc *BackupService) *AutoBackup {
	return NewAutoBackup(svc, testLogger(),
		WithAutoInitialDelay(5*time.Millisecond),
		WithAutoInterval(10*time.Millisecond),
	)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestAutoBackup_CapturesPeriodically(t *testing.T) {
	svc, store, cache := newTestService(t)
	store.Seed("t1", domain.CollectionItems, domain.Record{ID: "i1"})

	sched := newTestScheduler(svc)
	sched.Start("t1", "Home", domain.Actor{ID: "u1"})
	defer sched.StopAll()

	waitFor(t, func() bool { return cache.count("t1") >= 2 },
		"scheduler never captured two backups")
	if !sched.IsActive("t1") {
		t.Fatal("loop should still be running")
	}
}

func TestAutoBackup_StartIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	sched := newTestScheduler(svc)
	defer sched.StopAll()

	sched.Start("t1", "Home", domain.Actor{})
	sched.Start("t1", "Home", domain.Actor{})
	if !sched.IsActive("t1") {
		t.Fatal("tenant not active after Start")
	}

	sched.Stop("t1")
	if sched.IsActive("t1") {
		t.Fatal("tenant still active after Stop")
	}
	// Stopping again is a no-op.
	sched.Stop("t1")
}

func TestAutoBackup_DeniedTenantSkipsButKeepsTicking(t *testing.T) {
	svc, store, cache := newTestService(t)
	store.Seed("t1", domain.CollectionItems, domain.Record{ID: "i1"})
	store.DenyTenant("t1")

	sched := newTestScheduler(svc)
	sched.Start("t1", "Home", domain.Actor{})
	defer sched.StopAll()

	// Several periods of denial: captures are skipped, the schedule
	// survives.
	time.Sleep(50 * time.Millisecond)
	if !sched.IsActive("t1") {
		t.Fatal("denial must not stop the loop")
	}
	if cache.count("t1") != 0 {
		t.Fatal("denied tenant must not produce backups")
	}

	// Denial lifts; the next tick captures again.
	store.AllowTenant("t1")
	waitFor(t, func() bool { return cache.count("t1") > 0 },
		"loop never resumed after denial lifted")
}

func TestAutoBackup_TransientFailureKeepsRunning(t *testing.T) {
	svc, store, cache := newTestService(t)
	store.Seed("t1", domain.CollectionItems, domain.Record{ID: "i1"})

	// Saving to the cache fails, but not permission-denied: the loop
	// retries instead of stopping.
	cache.setSaveErr(domain.ErrStorageError)

	sched := newTestScheduler(svc)
	sched.Start("t1", "Home", domain.Actor{})
	defer sched.StopAll()

	time.Sleep(30 * time.Millisecond)
	if !sched.IsActive("t1") {
		t.Fatal("transient failures should not stop the loop")
	}

	// Once the cache recovers the loop captures again.
	cache.setSaveErr(nil)
	waitFor(t, func() bool { return cache.count("t1") > 0 },
		"loop never recovered after transient failures")
}

func TestAutoBackup_StopAll(t *testing.T) {
	svc, _, _ := newTestService(t)
	sched := newTestScheduler(svc)

	sched.Start("t1", "Home", domain.Actor{})
	sched.Start("t2", "Cabin", domain.Actor{})
	sched.StopAll()

	if sched.IsActive("t1") || sched.IsActive("t2") {
		t.Fatal("loops still active after StopAll")
	}
}
