package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the event bursts editors produce for one save.
const debounceDelay = 200 * time.Millisecond

// Watcher watches the configuration file and reloads it on change. Each
// successful reload is handed to the OnReload callback; the caller decides
// what to apply (in practice only the logging level — everything else is
// immutable while the server runs and logs a restart-required warning).
type Watcher struct {
	path     string
	onReload func(*Config)
	current  *Config

	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewWatcher creates a watcher for the configuration file at path.
// baseline is the configuration the process started with.
func NewWatcher(path string, baseline *Config, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     path,
		onReload: onReload,
		current:  baseline,
		watcher:  fw,
		logger:   slog.Default().With("component", "config.watcher"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched rather than the
// file itself so atomic-rename saves keep working.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.started = true
	w.wg.Add(1)
	go w.run()

	w.logger.Info("watching configuration file", "path", w.path)
	return nil
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return w.watcher.Close()
	}
	close(w.stopCh)
	err := w.watcher.Close()
	w.wg.Wait()
	w.started = false
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	pending := false

	fire := make(chan struct{}, 1)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if pending {
				continue
			}
			pending = true
			timer = time.AfterFunc(debounceDelay, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			pending = false
			if timer != nil {
				timer.Stop()
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// relevant reports whether the event concerns the watched file and is a
// content change rather than a chmod.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.path)
}

// reload loads the changed file, reports what cannot be applied live, and
// hands the new configuration to the callback.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("ignoring invalid configuration change", "error", err)
		return
	}

	if w.requiresRestart(cfg) {
		w.logger.Warn("configuration changes beyond the logging level require a restart")
	}

	if cfg.Telemetry.Logging.Level != w.current.Telemetry.Logging.Level {
		w.logger.Info("applying new logging level",
			"old", w.current.Telemetry.Logging.Level,
			"new", cfg.Telemetry.Logging.Level,
		)
	}

	w.current = cfg
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

// requiresRestart reports whether cfg differs from the running
// configuration in any way other than the logging level.
func (w *Watcher) requiresRestart(cfg *Config) bool {
	a, b := *cfg, *w.current
	a.Telemetry.Logging.Level = ""
	b.Telemetry.Logging.Level = ""
	return a != b
}
