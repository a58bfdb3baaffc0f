package confloader

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher notifies subscribers when a watched config file changes, so
// a running server can pick up backup tuning without a restart.
type Watcher struct {
	fs     *fsnotify.Watcher
	logger *slog.Logger

	mu   sync.Mutex
	subs []func(string)

	stopCh chan struct{}
}

// NewWatcher creates a config file watcher. A nil logger falls back to
// the default.
func NewWatcher(logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs:     fs,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Watch registers a file. The containing directory is watched rather
// than the file itself, so editor save-via-rename still notifies.
func (w *Watcher) Watch(path string) error {
	dir := filepath.Dir(path)
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.logger.Debug("watching config directory", "dir", dir, "file", filepath.Base(path))
	return nil
}

// OnChange subscribes to change notifications. The callback receives
// the changed path. Safe to call while the watcher runs.
func (w *Watcher) OnChange(fn func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}

// Run dispatches change events until Stop. Only writes and creates
// notify; removals and chmods are noise for a config file.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.logger.Debug("config file changed", "file", event.Name, "op", event.Op.String())
				w.notify(event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)
		case <-w.stopCh:
			return
		}
	}
}

// RunAsync runs the dispatch loop in a goroutine.
func (w *Watcher) RunAsync() {
	go w.Run()
}

// Stop ends the dispatch loop and releases the underlying watcher.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	return w.fs.Close()
}

func (w *Watcher) notify(path string) {
	w.mu.Lock()
	subs := make([]func(string), len(w.subs))
	copy(subs, w.subs)
	w.mu.Unlock()

	for _, fn := range subs {
		fn(path)
	}
}
