// Package pipeline executes the per-interface command sequence that
// applies one wallpaper change: every pre-hook, then every main
// command, then every post-hook, in interface-activation order.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync/atomic"

	"github.com/darkawower/walld/internal/config"
)

// Phase names the position of a step within the sequence.
type Phase string

const (
	PhasePreHook  Phase = "pre-hook"
	PhaseCommand  Phase = "command"
	PhasePostHook Phase = "post-hook"
)

// Step is one external command of a pipeline run.
type Step struct {
	Iface string
	Phase Phase
	Argv  []string
}

// Callbacks deliver the outcome of a run. The executor invokes exactly
// one of OnSuccess, OnFailure or OnCancel, from its own goroutine;
// callers that need loop affinity wrap these to re-post onto their loop.
type Callbacks struct {
	OnSuccess func()
	OnFailure func(step Step, err error)
	OnCancel  func()
}

// BuildSteps renders the full pre→main→post sequence for the target
// file across the active interfaces, in activation order within each
// batch.
func BuildSteps(cfg *config.Config, file string) []Step {
	var steps []Step
	for _, idx := range cfg.ActiveIfaces {
		iface := &cfg.Ifaces[idx]
		for _, argv := range iface.FormatPreHooks(file) {
			steps = append(steps, Step{Iface: iface.Name, Phase: PhasePreHook, Argv: argv})
		}
	}
	for _, idx := range cfg.ActiveIfaces {
		iface := &cfg.Ifaces[idx]
		steps = append(steps, Step{Iface: iface.Name, Phase: PhaseCommand, Argv: iface.FormatArgs(file)})
	}
	for _, idx := range cfg.ActiveIfaces {
		iface := &cfg.Ifaces[idx]
		for _, argv := range iface.FormatPostHooks(file) {
			steps = append(steps, Step{Iface: iface.Name, Phase: PhasePostHook, Argv: argv})
		}
	}
	return steps
}

// Executor runs pipelines strictly sequentially, one external process
// at a time, at most one run in flight.
type Executor struct {
	inFlight atomic.Bool

	// runCmd spawns one external process; replaced in tests.
	runCmd func(ctx context.Context, argv []string) error
}

// NewExecutor creates an executor spawning real external processes.
func NewExecutor() *Executor {
	return &Executor{runCmd: runCommand}
}

// WithRunner replaces the process runner (for testing).
func (e *Executor) WithRunner(run func(ctx context.Context, argv []string) error) *Executor {
	e.runCmd = run
	return e
}

// InFlight reports whether a run is currently executing.
func (e *Executor) InFlight() bool {
	return e.inFlight.Load()
}

// Run starts the sequence on a dedicated goroutine and returns
// immediately. It returns false without side effects if another run is
// already in flight. Cancellation is checked before each spawn; the
// first failing step aborts the remainder of the sequence.
func (e *Executor) Run(ctx context.Context, steps []Step, cb Callbacks) bool {
	if !e.inFlight.CompareAndSwap(false, true) {
		return false
	}

	go func() {
		for _, step := range steps {
			if ctx.Err() != nil {
				slog.Info("wallpaper pipeline cancelled", "interface", step.Iface, "phase", string(step.Phase))
				e.inFlight.Store(false)
				if cb.OnCancel != nil {
					cb.OnCancel()
				}
				return
			}
			if len(step.Argv) == 0 {
				continue
			}
			if err := e.runCmd(ctx, step.Argv); err != nil {
				slog.Error("wallpaper pipeline step failed",
					"interface", step.Iface, "phase", string(step.Phase), "error", err)
				e.inFlight.Store(false)
				if cb.OnFailure != nil {
					cb.OnFailure(step, err)
				}
				return
			}
		}
		e.inFlight.Store(false)
		if cb.OnSuccess != nil {
			cb.OnSuccess()
		}
	}()

	return true
}

func runCommand(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w (output: %s)", argv[0], err, bytes.TrimSpace(output))
	}
	return nil
}
