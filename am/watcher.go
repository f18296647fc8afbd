package am

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/arbor/errors"
	"github.com/teranos/arbor/logger"
)

// ConfigWatcher reloads one config file whenever it changes on disk and hands
// the result to the registered callbacks. Bursts of events are debounced into
// a single reload; writes made by Save are skipped.
type ConfigWatcher struct {
	configPath     string
	fs             *fsnotify.Watcher
	debouncePeriod time.Duration
	loader         func() (*Config, error)

	mu        sync.RWMutex
	callbacks []ReloadCallback

	ownWrite atomic.Bool

	quit     chan struct{}
	finished chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// ReloadCallback is called with the new config after a reload
type ReloadCallback func(*Config) error

var (
	globalWatcher   *ConfigWatcher
	globalWatcherMu sync.Mutex
)

// NewConfigWatcher creates a watcher for configPath. The parent directory is
// watched so editors that replace the file are noticed too.
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", configPath)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, errors.Wrapf(err, "failed to watch config file %s", configPath)
	}

	cw := &ConfigWatcher{
		configPath:     abs,
		fs:             fs,
		debouncePeriod: 500 * time.Millisecond,
		quit:           make(chan struct{}),
		finished:       make(chan struct{}),
	}
	cw.loader = func() (*Config, error) { return LoadFromFile(cw.configPath) }
	return cw, nil
}

// OnReload registers a callback, called in registration order
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// MarkOwnWrite makes the watcher skip the next change to the file
func (cw *ConfigWatcher) MarkOwnWrite() {
	cw.ownWrite.Store(true)
}

func (cw *ConfigWatcher) checkOwnWrite() bool {
	return cw.ownWrite.CompareAndSwap(true, false)
}

// Start begins watching in the background. Call it at most once.
func (cw *ConfigWatcher) Start() {
	if cw.started.CompareAndSwap(false, true) {
		go cw.run()
	}
}

func (cw *ConfigWatcher) run() {
	defer close(cw.finished)

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-cw.quit:
			return

		case event, ok := <-cw.fs.Events:
			if !ok {
				return
			}
			if !cw.relevant(event) {
				continue
			}
			if cw.checkOwnWrite() {
				logger.Debugw("Config watcher ignoring own write", logger.FieldPath, event.Name)
				continue
			}
			logger.Infow("Config file changed", logger.FieldPath, event.Name, "op", event.Op.String())
			if debounce == nil {
				debounce = time.NewTimer(cw.debouncePeriod)
			} else {
				debounce.Reset(cw.debouncePeriod)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			if err := cw.reload(); err != nil {
				logger.Errorw("Config reload failed", logger.FieldPath, cw.configPath, logger.FieldError, err)
			}

		case err, ok := <-cw.fs.Errors:
			if !ok {
				return
			}
			logger.Warnw("Config watcher error", logger.FieldError, err)
		}
	}
}

func (cw *ConfigWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != cw.configPath || isBackupFile(event.Name) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// reload loads the file and runs every callback; a failing callback does
// not stop the others
func (cw *ConfigWatcher) reload() error {
	cfg, err := cw.loader()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	Reset()

	cw.mu.RLock()
	callbacks := append([]ReloadCallback(nil), cw.callbacks...)
	cw.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(cfg); err != nil {
			logger.Warnw("Config reload callback error", logger.FieldError, err)
		}
	}
	logger.Infow("Config reloaded", logger.FieldPath, cw.configPath, logger.FieldCount, len(callbacks))
	return nil
}

// Stop ends watching and waits for a pending reload to finish
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		close(cw.quit)
		err = cw.fs.Close()
		if cw.started.Load() {
			<-cw.finished
		}
	})
	return err
}

// isBackupFile checks for the .back1-.back3 files Save rotates
func isBackupFile(path string) bool {
	return strings.HasPrefix(filepath.Ext(path), ".back")
}

// SetGlobalWatcher sets the watcher Save marks its own writes on
func SetGlobalWatcher(watcher *ConfigWatcher) {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	globalWatcher = watcher
}

// GetGlobalWatcher returns the watcher set by SetGlobalWatcher, if any
func GetGlobalWatcher() *ConfigWatcher {
	globalWatcherMu.Lock()
	defer globalWatcherMu.Unlock()
	return globalWatcher
}
