package recommend

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches bursts of writes to the watched files.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Holder when the model bundle or catalog changes on disk.
// A failed reload keeps the previous Recommender.
type Watcher struct {
	holder   *Holder
	source   Source
	debounce time.Duration
	logger   *zap.Logger
	onReload func(error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithReloadHook is called after every reload attempt.
func WithReloadHook(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher returns a Watcher for src's files.
func NewWatcher(h *Holder, src Source, logger *zap.Logger, opts ...WatcherOption) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{holder: h, source: src, debounce: DefaultDebounce, logger: logger}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. The parent directories are watched rather
// than the files, since the bundle is replaced by rename.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range []string{w.source.ModelPath, w.source.CatalogPath} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			w.logger.Warn("Cannot watch directory; hot reload disabled for it", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.logger.Debug("Watching for model and catalog changes", zap.String("dir", dir))
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event, targets) {
				continue
			}
			w.logger.Debug("Source file changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", zap.Error(err))

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event, targets map[string]bool) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return targets[abs]
}

func (w *Watcher) reload() {
	r, err := w.source.Load()
	if err != nil {
		w.logger.Error("Reload failed; keeping previous recommender", zap.Error(err))
	} else {
		w.holder.Store(r)
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
