package daemon

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/darkawower/walld/internal/config"
	"github.com/fsnotify/fsnotify"
)

// configWatcher monitors the configuration file and hands debounced
// reload events to the daemon loop. A reload that fails to parse is
// logged and the previous configuration stays in force.
type configWatcher struct {
	configPath   string
	daemon       *Daemon
	watcher      *fsnotify.Watcher
	stopChan     chan struct{}
	debounceTime time.Duration
}

func newConfigWatcher(configPath string, d *Daemon) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	// Watch the directory rather than the file itself: editors replace
	// the file on save, which drops a direct watch.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &configWatcher{
		configPath:   absPath,
		daemon:       d,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		debounceTime: 500 * time.Millisecond,
	}, nil
}

func (cw *configWatcher) start() {
	slog.Info("watching configuration file", "path", cw.configPath)
	go cw.watchLoop()
}

func (cw *configWatcher) stop() {
	close(cw.stopChan)
	if err := cw.watcher.Close(); err != nil {
		slog.Error("error closing file watcher", "error", err)
	}
}

func (cw *configWatcher) watchLoop() {
	configFile := filepath.Base(cw.configPath)
	var reloadTimer *time.Timer

	for {
		select {
		case <-cw.stopChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			slog.Debug("config file change detected", "file", event.Name, "op", event.Op.String())

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(cw.debounceTime, cw.performReload)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("config watcher error", "error", err)
		}
	}
}

// performReload parses the changed file and posts the new snapshot to
// the daemon loop. Reload is all-or-nothing: parse failures never touch
// the running configuration.
func (cw *configWatcher) performReload() {
	newCfg, err := config.Load(cw.configPath)
	if err != nil {
		slog.Error("failed to reload configuration, keeping previous", "error", err)
		return
	}
	cw.daemon.post(func() {
		cw.daemon.reload(newCfg)
	})
}
