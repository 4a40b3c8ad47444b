// Package refresh keeps a dashboard current with a background timer loop.
//
// The loop refreshes at a fixed interval while healthy. Failures back off
// exponentially, and after a run of consecutive failures the loop pauses
// entirely rather than hammering a broken upstream. Any success, including
// a user-initiated one, restores the healthy cadence.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	// DefaultInterval is the cadence of a healthy refresh loop.
	DefaultInterval = 60 * time.Second
	// DefaultBackoffBase is the delay after the first failure.
	DefaultBackoffBase = 2 * time.Second
	// DefaultBackoffCap bounds the failure backoff.
	DefaultBackoffCap = 32 * time.Second
	// DefaultMaxFailures is the consecutive-failure count that pauses the loop.
	DefaultMaxFailures = 3
)

var (
	// ErrClosed is returned by Refresh after Close.
	ErrClosed = errors.New("refresh: controller closed")
	// ErrBusy is returned by Refresh while another refresh is in flight.
	ErrBusy = errors.New("refresh: refresh already in flight")
)

// Config configures a Controller. Zero values take the defaults above.
type Config struct {
	Interval    time.Duration
	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxFailures int
	Clock       clockwork.Clock
	Logger      zerolog.Logger
}

// Observer is notified of refresh outcomes. Implementations must be safe
// for concurrent use.
type Observer interface {
	RefreshRun(outcome string)
	RefreshPaused(paused bool)
}

// Controller drives a refresh function on a timer. At most one refresh
// runs at a time, whether triggered by the timer, a visibility change, or
// a manual call.
type Controller struct {
	cfg      Config
	clock    clockwork.Clock
	logger   zerolog.Logger
	fn       func(context.Context) error
	observer Observer

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	timer    clockwork.Timer
	inFlight bool
	closed   bool
	started  bool
}

// An Option customizes a Controller.
type Option func(*Controller)

// WithObserver wires refresh outcome metrics.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// New creates a stopped Controller around fn. Call Start to begin the
// timer loop.
func New(cfg Config, fn func(context.Context) error, opts ...Option) *Controller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = DefaultBackoffCap
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:    cfg,
		clock:  cfg.Clock,
		logger: cfg.Logger.With().Str("component", "refresh").Logger(),
		fn:     fn,
		state:  State{BackoffDelay: cfg.BackoffBase},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start schedules the first background refresh one interval from now.
// Starting an already started or closed controller is a no-op.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	c.schedule(c.cfg.Interval)
}

// Refresh runs fn immediately on behalf of the user. It runs even while
// the loop is paused, but only a success clears the pause and the failure
// history; a failed attempt leaves a paused loop paused. The caller sees
// the error; the background loop's bookkeeping follows the same rules as
// a timer-driven run.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrBusy
	}
	c.inFlight = true
	c.mu.Unlock()

	return c.run(ctx)
}

// OnVisible triggers an immediate background refresh, for clients that
// report becoming visible after being hidden. A paused loop still gets
// the attempt; the pause lifts only if the attempt succeeds. No-op while
// closed or a refresh is in flight.
func (c *Controller) OnVisible() {
	c.mu.Lock()
	if c.closed || c.inFlight {
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.mu.Unlock()

	go c.run(c.ctx) //nolint:errcheck // background outcome handled in run
}

// Reset clears the failure history and, if the loop has been started,
// reschedules the next refresh a full interval out. Used when the user
// succeeds through some other path, such as fetching a new location.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.setState(State{BackoffDelay: c.cfg.BackoffBase})
	if c.started {
		c.schedule(c.cfg.Interval)
	}
}

// Snapshot returns the current loop state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Paused reports whether the background loop has given up until the next
// success or user action.
func (c *Controller) Paused() bool {
	return c.Snapshot().Paused
}

// Close stops the timer and cancels any in-flight background refresh. No
// callback fires after Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimer()
	c.cancel()
}

// tick is the timer callback.
func (c *Controller) tick() {
	c.mu.Lock()
	if c.closed || c.state.Paused {
		c.mu.Unlock()
		return
	}
	if c.inFlight {
		// A manual refresh beat us to it. Try again next interval.
		c.schedule(c.cfg.Interval)
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.mu.Unlock()

	_ = c.run(c.ctx)
}

// run executes fn and applies the outcome. The caller must have claimed
// the in-flight flag.
func (c *Controller) run(ctx context.Context) error {
	err := c.fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if c.closed {
		return err
	}

	if err != nil {
		if c.observer != nil {
			c.observer.RefreshRun("failure")
		}
		c.setState(c.state.OnFailure(c.cfg.BackoffBase, c.cfg.BackoffCap, c.cfg.MaxFailures))
		if c.state.Paused {
			c.stopTimer()
			c.logger.Warn().
				Int("consecutive_failures", c.state.ConsecutiveFailures).
				Msg("auto-refresh paused after repeated failures")
			return err
		}
		c.logger.Debug().
			Err(err).
			Dur("backoff", c.state.BackoffDelay).
			Int("consecutive_failures", c.state.ConsecutiveFailures).
			Msg("refresh failed, backing off")
		c.schedule(c.state.BackoffDelay)
		return err
	}

	if c.observer != nil {
		c.observer.RefreshRun("success")
	}
	c.setState(c.state.OnSuccess(c.cfg.BackoffBase))
	c.schedule(c.cfg.Interval)
	return nil
}

// schedule replaces the pending timer. Caller holds the lock.
func (c *Controller) schedule(d time.Duration) {
	c.stopTimer()
	c.timer = c.clock.AfterFunc(d, c.tick)
}

// stopTimer cancels the pending timer, if any. Caller holds the lock.
func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// setState records a transition and reports pause flips. Caller holds
// the lock.
func (c *Controller) setState(next State) {
	if c.observer != nil && next.Paused != c.state.Paused {
		c.observer.RefreshPaused(next.Paused)
	}
	c.state = next
}
