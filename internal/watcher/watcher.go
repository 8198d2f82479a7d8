// Package watcher re-ingests a local route manifest when it changes on
// disk, built on fsnotify with debounced change events.
package watcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceWindow is how long the manifest must stay quiet before
// a change callback fires.
const DefaultDebounceWindow = 500 * time.Millisecond

// ManifestWatcher watches a single manifest file. The parent directory
// is watched rather than the file itself: editors and atomic writers
// replace the file, which would silently kill a file-level watch.
type ManifestWatcher struct {
	path     string
	onChange func()
	logger   *slog.Logger
	debounce *Debouncer
	fs       *fsnotify.Watcher
}

// NewManifestWatcher creates a watcher for path that calls onChange
// after each (debounced) modification. window <= 0 uses the default.
func NewManifestWatcher(path string, window time.Duration, onChange func(), logger *slog.Logger) (*ManifestWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve %s: %w", path, err)
	}
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	w := &ManifestWatcher{
		path:     abs,
		onChange: onChange,
		logger:   logger,
	}
	w.debounce = NewDebouncer(window, w.fire)
	return w, nil
}

// Start begins watching and blocks until ctx is cancelled or the
// underlying watcher fails.
func (w *ManifestWatcher) Start(ctx context.Context) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: init: %w", err)
	}
	w.fs = fs
	defer w.Stop()

	if err := fs.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watcher: watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching manifest", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fs.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				w.debounce.Trigger()
			}
		case err, ok := <-fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("manifest watch error", "error", err)
		}
	}
}

// relevant filters directory events down to changes of the manifest.
func (w *ManifestWatcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}

func (w *ManifestWatcher) fire() {
	w.logger.Info("manifest changed", "path", w.path)
	w.onChange()
}

// Stop tears down the watcher. Safe to call multiple times.
func (w *ManifestWatcher) Stop() {
	w.debounce.Stop()
	if w.fs != nil {
		_ = w.fs.Close()
	}
}
