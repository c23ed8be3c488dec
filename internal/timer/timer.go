// Package timer provides the per-question countdown and stopwatch clock.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidArgument reports a malformed Config.
var ErrInvalidArgument = errors.New("invalid argument")

// Mode selects counting direction.
type Mode string

const (
	Countdown Mode = "countdown"
	Stopwatch Mode = "stopwatch"
)

// State is the timer's position in its life cycle.
type State int

const (
	Idle State = iota
	Running
	Paused
	Expired
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config is fixed for the lifetime of a Timer. Duration is in whole seconds
// and ignored in stopwatch mode.
type Config struct {
	Mode     Mode
	Duration int
	Paused   bool
	OnExpire func()
}

// Timer counts whole seconds. Tick advances it by one; Run drives Tick from a
// periodic source. All methods are safe for concurrent use.
type Timer struct {
	mu       sync.Mutex
	cfg      Config
	seconds  int
	started  bool
	paused   bool
	expired  bool
	stopped  bool
	stopOnce sync.Once
	done     chan struct{}
}

// New validates cfg and returns a timer at its initial value.
func New(cfg Config) (*Timer, error) {
	switch cfg.Mode {
	case Countdown:
		if cfg.Duration < 0 {
			return nil, fmt.Errorf("%w: negative duration %d", ErrInvalidArgument, cfg.Duration)
		}
	case Stopwatch:
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, cfg.Mode)
	}
	t := &Timer{cfg: cfg, paused: cfg.Paused, done: make(chan struct{})}
	t.seconds = t.initial()
	t.started = !cfg.Paused
	return t, nil
}

func (t *Timer) initial() int {
	if t.cfg.Mode == Countdown {
		return t.cfg.Duration
	}
	return 0
}

// Mode returns the configured mode.
func (t *Timer) Mode() Mode {
	return t.cfg.Mode
}

// Seconds returns remaining seconds for a countdown or elapsed seconds for a stopwatch.
func (t *Timer) Seconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seconds
}

// Expired reports whether the countdown reached zero since the last reset.
func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}

// State returns the current life-cycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.expired:
		return Expired
	case !t.started:
		return Idle
	case t.paused:
		return Paused
	default:
		return Running
	}
}

// Display formats the current value as M:SS.
func (t *Timer) Display() string {
	return Format(t.Seconds())
}

// Format renders seconds as M:SS; minutes are not padded.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Tick advances the clock by one second. A countdown reaching zero latches
// Expired and calls OnExpire once, outside the lock. The expiry is decided
// while the lock is held: a Reset or Stop that returned before that point
// suppresses the callback, one that runs after it does not recall it.
func (t *Timer) Tick() {
	t.mu.Lock()
	if t.stopped || t.paused || t.expired {
		t.mu.Unlock()
		return
	}
	t.started = true
	if t.cfg.Mode == Stopwatch {
		t.seconds++
		t.mu.Unlock()
		return
	}
	if t.seconds > 0 {
		t.seconds--
	}
	if t.seconds > 0 {
		t.mu.Unlock()
		return
	}
	t.expired = true
	onExpire := t.cfg.OnExpire
	t.mu.Unlock()

	if onExpire != nil {
		onExpire()
	}
}

// Reset restores the initial value and clears the expired latch. It does not
// resume a paused timer.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seconds = t.initial()
	t.expired = false
	if !t.paused {
		t.started = true
	}
}

// SetPaused mirrors an external pause flag.
func (t *Timer) SetPaused(paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = paused
	if !paused && !t.stopped {
		t.started = true
	}
}

// Pause stops the clock from advancing.
func (t *Timer) Pause() { t.SetPaused(true) }

// Resume lets the clock advance again.
func (t *Timer) Resume() { t.SetPaused(false) }

// Stop ends the timer for good. No tick advances after Stop returns and no new
// OnExpire call starts; a callback already in progress runs to completion.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.stopOnce.Do(func() { close(t.done) })
}

// Stopped reports whether Stop was called.
func (t *Timer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Run calls Tick for every value received on ticks until ctx is done, ticks is
// closed, or Stop is called.
func (t *Timer) Run(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			t.Tick()
		}
	}
}

// RunEvery drives the timer from a one-second ticker. It blocks like Run.
func (t *Timer) RunEvery(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	t.Run(ctx, ticker.C)
}
