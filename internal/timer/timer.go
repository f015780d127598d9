// Package timer provides a pausable periodic timer that preserves
// wall-clock phase across pause/resume.
package timer

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidInterval is returned by Start for a non-positive interval.
var ErrInvalidInterval = errors.New("interval is not within positive range")

// State is the timer lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Paused
	Stopped
)

// Callback is invoked on every fire. Returning false stops the timer.
type Callback func() bool

// Timer fires a callback periodically. Pausing records the un-elapsed
// remainder of the current interval; resuming arms a one-shot for that
// remainder and then falls back to the regular period, so a timer
// paused at 80% of its interval fires after only the remaining 20%.
type Timer struct {
	mu        sync.Mutex
	interval  time.Duration
	callback  Callback
	state     State
	start     time.Time
	remainder time.Duration
	hasRem    bool
	fire      *time.Timer
	resume    *time.Timer

	// gen invalidates in-flight AfterFunc callbacks after a
	// pause/resume/stop races with a fire.
	gen uint64
}

// Start arms a new periodic timer.
func Start(interval time.Duration, callback Callback) (*Timer, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	t := &Timer{
		interval: interval,
		callback: callback,
		state:    Running,
		start:    time.Now(),
	}
	gen := t.gen
	t.fire = time.AfterFunc(interval, func() { t.tick(gen, false) })
	return t, nil
}

// State returns the current lifecycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Interval returns the configured period.
func (t *Timer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// Pause cancels the pending fire and records the remainder of the
// current interval. If resumeAfter is positive, Resume is scheduled
// automatically after that delay. No-op unless running.
func (t *Timer) Pause(resumeAfter time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running {
		return
	}

	t.gen++
	t.fire.Stop()
	t.fire = nil

	rem := t.interval - time.Since(t.start)
	if rem < 0 {
		rem = 0
	}
	t.remainder = rem
	t.hasRem = true
	t.state = Paused

	if resumeAfter > 0 {
		if t.resume != nil {
			t.resume.Stop()
		}
		t.resume = time.AfterFunc(resumeAfter, t.Resume)
	}
}

// Resume arms a one-shot fire for the stored remainder; that fire
// invokes the callback once and then re-arms the regular period.
// No-op unless paused with a stored remainder.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Paused || !t.hasRem {
		return
	}
	if t.resume != nil {
		t.resume.Stop()
		t.resume = nil
	}

	rem := t.remainder
	t.hasRem = false
	t.state = Running
	t.start = time.Now().Add(rem - t.interval)

	t.gen++
	gen := t.gen
	t.fire = time.AfterFunc(rem, func() { t.tick(gen, true) })
}

// Stop cancels the pending fire and any scheduled auto-resume.
// Terminal for this instance.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == Stopped {
		return
	}
	t.gen++
	if t.fire != nil {
		t.fire.Stop()
		t.fire = nil
	}
	if t.resume != nil {
		t.resume.Stop()
		t.resume = nil
	}
	t.state = Stopped
}

// tick runs the callback for one fire and re-arms the next one unless
// the callback asked to stop or the arm was invalidated meanwhile.
func (t *Timer) tick(gen uint64, oneShot bool) {
	t.mu.Lock()
	if t.state != Running || gen != t.gen {
		t.mu.Unlock()
		return
	}
	if !oneShot {
		t.start = time.Now()
	}
	cb := t.callback
	t.mu.Unlock()

	cont := cb()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Running || gen != t.gen {
		return
	}
	if !cont {
		t.fire = nil
		t.state = Stopped
		return
	}

	t.start = time.Now()
	t.gen++
	next := t.gen
	t.fire = time.AfterFunc(t.interval, func() { t.tick(next, false) })
}
