package refresh

import "time"

// State tracks the health of the background refresh loop. Transitions are
// pure so they can be reasoned about (and tested) without timers.
type State struct {
	// ConsecutiveFailures counts failed refreshes since the last success.
	ConsecutiveFailures int `json:"consecutiveFailures"`
	// BackoffDelay is the delay before the next attempt after a failure.
	// Holds the base delay while the loop is healthy.
	BackoffDelay time.Duration `json:"backoffDelay"`
	// Paused is set once ConsecutiveFailures reaches the configured
	// maximum. A paused loop schedules no further timers until something
	// succeeds or the user intervenes.
	Paused bool `json:"paused"`
}

// OnSuccess returns the healthy state: failures cleared, backoff back at
// its base delay, pause lifted.
func (s State) OnSuccess(base time.Duration) State {
	return State{BackoffDelay: base}
}

// OnFailure returns the state after one more failed refresh. The delay
// doubles from base on each consecutive failure, capped at max. Reaching
// maxFailures pauses the loop.
func (s State) OnFailure(base, max time.Duration, maxFailures int) State {
	next := State{ConsecutiveFailures: s.ConsecutiveFailures + 1}

	delay := base << (next.ConsecutiveFailures - 1)
	if delay > max || delay <= 0 {
		delay = max
	}
	next.BackoffDelay = delay

	if next.ConsecutiveFailures >= maxFailures {
		next.Paused = true
	}
	return next
}
