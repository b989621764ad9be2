package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/servicekit/go-service-template/errors"
	"go.uber.org/zap"
)

// ReloadCallback receives the freshly loaded configuration.
type ReloadCallback func(*Config) error

// Watcher reloads the config file when it changes on disk and hands the new
// configuration to registered callbacks. Invalid edits are logged and ignored,
// so the running configuration stays in place.
type Watcher struct {
	path      string
	envPrefix string
	watcher   *fsnotify.Watcher
	logger    *zap.SugaredLogger

	mu             sync.Mutex
	callbacks      []ReloadCallback
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	done           chan struct{}
}

// NewWatcher starts watching path. The directory is watched rather than the
// file so editors that replace the file on save are still observed.
func NewWatcher(path, envPrefix string, logger *zap.SugaredLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch config file %s", path)
	}

	return &Watcher{
		path:           path,
		envPrefix:      envPrefix,
		watcher:        fw,
		logger:         logger,
		debouncePeriod: 500 * time.Millisecond,
		done:           make(chan struct{}),
	}, nil
}

// OnReload registers a callback to be called after a successful reload
func (w *Watcher) OnReload(callback ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins processing file system events
func (w *Watcher) Start() {
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !sameFile(event.Name, w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debugw("Config file changed", "file", event.Name, "op", event.Op.String())
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("Config watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// scheduleReload coalesces bursts of writes into one reload
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, func() {
		if err := w.reload(); err != nil {
			w.logger.Errorw("Config reload failed, keeping previous configuration", "error", err)
		}
	})
}

func (w *Watcher) reload() error {
	cfg, err := Load(w.path, w.envPrefix)
	if err != nil {
		return err
	}

	w.mu.Lock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Infow("Config reloaded", "path", w.path)
	for _, callback := range callbacks {
		if err := callback(cfg); err != nil {
			w.logger.Warnw("Config reload callback error", "error", err)
		}
	}
	return nil
}

// Stop stops watching for changes
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
	close(w.done)
	return w.watcher.Close()
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
