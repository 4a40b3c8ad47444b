package upstream

import "time"

// Policy describes how the executor treats each error class for one
// upstream. Rate limiting uses a fixed delay schedule because providers
// document fixed cool-down windows; server and transport failures use
// exponential backoff with independent budgets.
type Policy struct {
	// Name identifies the upstream for circuit breaker naming, logs and
	// metrics.
	Name string

	// Timeout is the per-request HTTP timeout.
	// Default: 10 seconds
	Timeout time.Duration

	// RateLimitDelays is the fixed delay schedule applied after each HTTP
	// 429. One retry per entry; nil or empty disables 429 retries entirely
	// so the first 429 surfaces immediately.
	RateLimitDelays []time.Duration

	// ServerErrorBase is the initial delay for 5xx retries; it doubles on
	// every subsequent attempt.
	// Default: 1 second
	ServerErrorBase time.Duration

	// ServerErrorAttempts is the total attempt budget for 5xx responses.
	// Default: 3
	ServerErrorAttempts int

	// TransportBase is the initial delay for network/timeout retries; it
	// doubles on every subsequent attempt.
	// Default: 1 second
	TransportBase time.Duration

	// TransportAttempts is the total attempt budget for transport failures.
	// Default: 3
	TransportAttempts int
}

// withDefaults fills in zero fields.
func (p Policy) withDefaults() Policy {
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	if p.ServerErrorBase == 0 {
		p.ServerErrorBase = 1 * time.Second
	}
	if p.ServerErrorAttempts == 0 {
		p.ServerErrorAttempts = 3
	}
	if p.TransportBase == 0 {
		p.TransportBase = 1 * time.Second
	}
	if p.TransportAttempts == 0 {
		p.TransportAttempts = 3
	}
	return p
}

// NWSPolicy is the retry policy for the National Weather Service API.
// NWS rate limiting is coarse, so 429s get a generous fixed schedule.
func NWSPolicy() Policy {
	return Policy{
		Name:                "nws",
		Timeout:             10 * time.Second,
		RateLimitDelays:     []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second},
		ServerErrorBase:     1 * time.Second,
		ServerErrorAttempts: 3,
		TransportBase:       1 * time.Second,
		TransportAttempts:   3,
	}
}

// UVPolicy is the retry policy for the UV index API. 429 and 401 are never
// retried there: the caller degrades to "no data" instead.
func UVPolicy() Policy {
	return Policy{
		Name:                "uvindex",
		Timeout:             5 * time.Second,
		RateLimitDelays:     nil,
		ServerErrorBase:     1 * time.Second,
		ServerErrorAttempts: 2,
		TransportBase:       1 * time.Second,
		TransportAttempts:   2,
	}
}

// GeocodePolicy is the retry policy for the ZIP code resolver.
func GeocodePolicy() Policy {
	return Policy{
		Name:                "geocode",
		Timeout:             5 * time.Second,
		RateLimitDelays:     nil,
		ServerErrorBase:     1 * time.Second,
		ServerErrorAttempts: 2,
		TransportBase:       1 * time.Second,
		TransportAttempts:   2,
	}
}
