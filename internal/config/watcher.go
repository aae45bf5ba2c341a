package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// Watcher reloads the configuration file when it changes and notifies subscribers.
type Watcher struct {
	path      string
	load      func() (*Config, error)
	config    *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewWatcher starts watching the directory of path. The load function is
// called on every debounced change.
func NewWatcher(path string, initial *Config, load func() (*Config, error), logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors replace files on save, so the directory is watched rather than the file.
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		load:    load,
		config:  initial,
		logger:  logger,
		watcher: fsWatcher,
		stopCh:  make(chan struct{}),
	}
	go w.watchLoop()

	logger.Info("Configuration hot reloading enabled", zap.String("file", path))
	return w, nil
}

func (w *Watcher) watchLoop() {
	defer w.watcher.Close()

	var debounceTimer *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Info("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	newConfig, err := w.load()
	if err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.config = newConfig
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for i, cb := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("Config callback panicked",
						zap.Int("callback_index", i),
						zap.Any("panic", r),
					)
				}
			}()
			cb(newConfig)
		}()
	}

	w.logger.Info("Configuration reloaded", zap.Int("callbacks_notified", len(callbacks)))
}

// OnChange registers a callback invoked with each reloaded configuration.
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Config returns the most recently loaded configuration.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}
