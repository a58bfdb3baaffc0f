package confloader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func watcherLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcher_NotifiesOnWrite(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "larder.yaml")
	writeConfig(t, cfg, "backup:\n  auto_interval: 5m\n")

	w, err := NewWatcher(watcherLogger())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if err := w.Watch(cfg); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	changed := make(chan string, 8)
	w.OnChange(func(path string) {
		select {
		case changed <- path:
		default:
		}
	})
	w.RunAsync()
	time.Sleep(100 * time.Millisecond)

	writeConfig(t, cfg, "backup:\n  auto_interval: 10m\n")

	select {
	case path := <-changed:
		if path == "" {
			t.Fatal("notification carried an empty path")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("write never notified")
	}
}

func TestWatcher_NotifiesOnCreate(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "larder.yaml")
	writeConfig(t, existing, "log:\n  level: info\n")

	w, err := NewWatcher(watcherLogger())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if err := w.Watch(existing); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	changed := make(chan string, 8)
	w.OnChange(func(path string) {
		select {
		case changed <- path:
		default:
		}
	})
	w.RunAsync()
	time.Sleep(100 * time.Millisecond)

	// A new file in the watched directory counts as a change; editors
	// that save via rename create a fresh file.
	writeConfig(t, filepath.Join(dir, "larder.yaml.new"), "log:\n  level: debug\n")

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("create never notified")
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := NewWatcher(watcherLogger())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if err := w.Watch("/nonexistent/larder.yaml"); err == nil {
		t.Fatal("watching a missing directory should fail")
	}
}

func TestWatcher_SubscribeWhileRunning(t *testing.T) {
	w, err := NewWatcher(watcherLogger())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()
	w.RunAsync()

	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.OnChange(func(string) {
				mu.Lock()
				count++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	w.notify("/tmp/larder.yaml")
	mu.Lock()
	defer mu.Unlock()
	if count != 20 {
		t.Fatalf("notified %d subscribers, want 20", count)
	}
}

func TestWatcher_StopEndsRun(t *testing.T) {
	w, err := NewWatcher(watcherLogger())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Run()
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
