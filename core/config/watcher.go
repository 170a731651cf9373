package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is invoked after a successful reload.
type ChangeCallback func(old, new *Config)

// Watcher watches a config file and reloads it on change. Reloads that fail
// to parse or validate are logged and the previous config is kept.
type Watcher struct {
	path string
	log  *slog.Logger

	mu        sync.RWMutex
	config    *Config
	callbacks []ChangeCallback

	fsWatcher *fsnotify.Watcher
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWatcher loads path and starts watching it. Close must be called to
// release the underlying file watcher.
func NewWatcher(ctx context.Context, path string, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory: editors replace files on save, which drops the
	// watch on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		path:      path,
		log:       log,
		config:    cfg,
		fsWatcher: fsw,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go w.run(ctx)
	return w, nil
}

// Config returns the current configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnChange registers cb to run after each successful reload.
func (w *Watcher) OnChange(cb ChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	<-w.done
	return w.fsWatcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watch error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous", slog.Any("error", err))
		return
	}

	w.mu.Lock()
	old := w.config
	w.config = cfg
	callbacks := make([]ChangeCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.log.Info("config reloaded", slog.String("path", w.path))
	for _, cb := range callbacks {
		cb(old, cfg)
	}
}
