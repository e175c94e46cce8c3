package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads the daemon when the configuration file changes.
// Rapid successive writes (editors, atomic saves) are debounced.
type ConfigWatcher struct {
	configPath string
	daemon     *Daemon
	watcher    *fsnotify.Watcher
	stopChan   chan struct{}
	debounce   time.Duration
}

// NewConfigWatcher creates a watcher for configPath.
func NewConfigWatcher(configPath string, d *Daemon) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	// Watch the directory; watching the file itself breaks on atomic
	// replaces.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}
	return &ConfigWatcher{
		configPath: absPath,
		daemon:     d,
		watcher:    watcher,
		stopChan:   make(chan struct{}),
		debounce:   2 * time.Second,
	}, nil
}

// Start begins monitoring in the background.
func (cw *ConfigWatcher) Start(ctx context.Context) {
	slog.Info("watching configuration file", "path", cw.configPath)
	go cw.loop(ctx)
}

// Stop stops monitoring.
func (cw *ConfigWatcher) Stop() {
	close(cw.stopChan)
	_ = cw.watcher.Close()
}

func (cw *ConfigWatcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(cw.debounce)
				timerC = timer.C
			} else {
				timer.Reset(cw.debounce)
			}
		case <-timerC:
			timerC = nil
			timer = nil
			slog.Info("configuration file changed, reloading")
			if err := cw.daemon.Reload(); err != nil {
				slog.Error("configuration reload failed", "error", err)
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "error", err)
		case <-cw.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}
