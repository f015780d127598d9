// Package daemon orchestrates the wallpaper rotation: it owns the
// configuration snapshot and rotation state, arms the resumable timer,
// runs the command pipeline and serves the RPC operation set. All
// shared state is mutated from one scheduling loop; RPC operations,
// timer fires and watcher events are closures posted onto that loop.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/darkawower/walld/internal/config"
	"github.com/darkawower/walld/internal/pipeline"
	"github.com/darkawower/walld/internal/rotation"
	"github.com/darkawower/walld/internal/timer"
)

// Daemon is the wallpaper rotation controller.
type Daemon struct {
	configPath string

	calls  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Loop-owned state. Touched only from the scheduling loop once
	// Start has returned.
	cfg     *config.Config
	rot     *rotation.Engine
	tm      *timer.Timer
	exec    *pipeline.Executor
	watcher *configWatcher
	running bool

	// pending coalesces rotation triggers that arrive while a pipeline
	// is in flight; the queued rotation runs after completion.
	pending bool
}

// New creates a daemon for the given configuration file.
func New(configPath string) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		configPath: configPath,
		calls:      make(chan func(), 16),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		rot:        rotation.New(),
		exec:       pipeline.NewExecutor(),
	}
}

// Start loads the configuration, arms the timer, begins watching the
// configuration file and starts the scheduling loop.
func (d *Daemon) Start() error {
	cfg, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	d.cfg = cfg
	d.rot.SetFiles(cfg.Files)
	d.rot.SetShuffle(cfg.Shuffle)
	d.running = true

	go d.loop()

	if cfg.Schedule > 0 {
		interval, err := cfg.Interval()
		if err != nil {
			return err
		}
		if err := d.armTimer(interval); err != nil {
			return err
		}
		slog.Info("schedule set", "schedule", cfg.Schedule, "units", string(cfg.Units))
	}

	watcher, err := newConfigWatcher(d.configPath, d)
	if err != nil {
		slog.Warn("config watcher unavailable, hot reload disabled", "error", err)
	} else {
		d.watcher = watcher
		watcher.start()
	}

	slog.Info("daemon started",
		"files", len(cfg.Files),
		"interfaces", len(cfg.Ifaces),
		"active", len(cfg.ActiveIfaces),
		"shuffle", cfg.Shuffle)
	return nil
}

// Stop cancels any in-flight pipeline, stops the timer and the watcher
// and terminates the scheduling loop.
func (d *Daemon) Stop() {
	d.cancel()
	if d.watcher != nil {
		d.watcher.stop()
	}
	if d.tm != nil {
		d.tm.Stop()
	}
	<-d.done
	slog.Info("daemon stopped")
}

// loop is the single scheduling loop. It owns cfg, rot and tm.
func (d *Daemon) loop() {
	defer close(d.done)
	for {
		select {
		case fn := <-d.calls:
			fn()
		case <-d.ctx.Done():
			return
		}
	}
}

// post schedules fn onto the loop.
func (d *Daemon) post(fn func()) {
	select {
	case d.calls <- fn:
	case <-d.ctx.Done():
	}
}

// invoke runs fn on the scheduling loop behind the uniform is-running
// check and waits for its result.
func invoke[T any](d *Daemon, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	resC := make(chan result, 1)

	d.post(func() {
		if !d.running {
			var zero T
			resC <- result{zero, ErrNotRunning}
			return
		}
		val, err := fn()
		resC <- result{val, err}
	})

	select {
	case res := <-resC:
		return res.val, res.err
	case <-d.ctx.Done():
		var zero T
		return zero, ErrNotRunning
	}
}

// armTimer replaces the rotation timer. Runs on the loop (or during
// Start, before the loop observes any call).
func (d *Daemon) armTimer(interval time.Duration) error {
	if d.tm != nil {
		d.tm.Stop()
	}
	tm, err := timer.Start(interval, d.onTimerFire)
	if err != nil {
		return err
	}
	d.tm = tm
	return nil
}

func (d *Daemon) onTimerFire() bool {
	if d.ctx.Err() != nil {
		return false
	}
	d.post(func() {
		slog.Info("timeout reached, setting next wallpaper")
		d.rotate()
	})
	return true
}

// rotate advances the rotation and runs the pipeline for the selected
// file. Runs on the loop. A trigger that arrives while a pipeline is in
// flight is queued behind it, never run concurrently.
func (d *Daemon) rotate() {
	if d.exec.InFlight() {
		d.pending = true
		return
	}

	_, path, err := d.rot.Next()
	if err != nil {
		slog.Error("cannot rotate wallpaper", "error", err)
		return
	}

	steps := pipeline.BuildSteps(d.cfg, path)
	started := d.exec.Run(d.ctx, steps, pipeline.Callbacks{
		OnSuccess: func() {
			d.post(func() {
				d.rot.MarkApplied(path)
				slog.Info("wallpaper set successfully", "file", path)
				d.runPending()
			})
		},
		OnFailure: func(step pipeline.Step, err error) {
			d.post(func() {
				slog.Error("rotation cycle terminated",
					"interface", step.Iface, "phase", string(step.Phase), "error", err)
				d.runPending()
			})
		},
		OnCancel: func() {},
	})
	if !started {
		d.pending = true
	}
}

func (d *Daemon) runPending() {
	if d.pending {
		d.pending = false
		d.rotate()
	}
}

// reload applies a freshly parsed configuration. The timer is re-armed
// only if the effective schedule changed; the snapshot is replaced
// wholesale. Runs on the loop.
func (d *Daemon) reload(newCfg *config.Config) {
	old := d.cfg
	scheduleChanged := old.Schedule != newCfg.Schedule || old.Units != newCfg.Units

	d.cfg = newCfg
	d.rot.SetFiles(newCfg.Files)
	if old.Shuffle != newCfg.Shuffle {
		d.rot.SetShuffle(newCfg.Shuffle)
	}

	if scheduleChanged {
		if newCfg.Schedule > 0 {
			interval, err := newCfg.Interval()
			if err == nil {
				err = d.armTimer(interval)
			}
			if err != nil {
				slog.Error("failed to re-arm timer after reload", "error", err)
			} else {
				slog.Info("schedule re-armed", "schedule", newCfg.Schedule, "units", string(newCfg.Units))
			}
		} else if d.tm != nil {
			d.tm.Stop()
			d.tm = nil
		}
	}

	slog.Info("configuration reloaded",
		"files", len(newCfg.Files),
		"interfaces", len(newCfg.Ifaces),
		"schedule_changed", scheduleChanged)
}
