// Package upstream provides a policy-driven HTTP executor for outbound
// weather API calls. Each upstream gets its own retry budget per error
// class (fixed schedule for rate limits, exponential backoff for server
// and transport failures) and a circuit breaker shared across attempts.
package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// maxErrorBody caps how much of an error response body is kept for
// diagnostics.
const maxErrorBody = 2048

// Observer receives executor outcomes for metrics. Implementations must be
// safe for concurrent use.
type Observer interface {
	// UpstreamRequest records one finished call (after all retries) with
	// outcome "success", "rate_limited", "not_found", "auth", "server_error",
	// "transport" or "upstream_error".
	UpstreamRequest(upstream, outcome string)

	// UpstreamRetry records one scheduled retry.
	UpstreamRetry(upstream string)
}

// ExecutorConfig holds configuration for an Executor.
type ExecutorConfig struct {
	// Policy is the retry policy for this upstream (required; Name must be
	// set).
	Policy Policy

	// Breaker configures the circuit breaker. If nil, DefaultBreakerConfig
	// for the policy name is used.
	Breaker *BreakerConfig

	// HTTPClient is the underlying client. If nil, one is built with the
	// policy timeout.
	HTTPClient *http.Client

	// Clock is the time source for retry sleeps. Defaults to the real
	// clock; tests inject a fake.
	Clock clockwork.Clock

	// Logger for retry warnings.
	Logger zerolog.Logger

	// Observer receives metrics callbacks (optional).
	Observer Observer
}

// Executor wraps outbound HTTP calls with the per-class retry policy.
type Executor struct {
	policy   Policy
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[*attemptResult]
	clock    clockwork.Clock
	logger   zerolog.Logger
	observer Observer
}

type attemptResult struct {
	resp *http.Response
}

// NewExecutor creates an Executor for one upstream.
func NewExecutor(cfg ExecutorConfig) *Executor {
	policy := cfg.Policy.withDefaults()

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: policy.Timeout}
	}

	breakerCfg := DefaultBreakerConfig(policy.Name)
	if cfg.Breaker != nil {
		breakerCfg = *cfg.Breaker
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Executor{
		policy:   policy,
		client:   client,
		breaker:  newBreaker(breakerCfg),
		clock:    clock,
		logger:   cfg.Logger.With().Str("upstream", policy.Name).Logger(),
		observer: cfg.Observer,
	}
}

// Do executes req, retrying according to the policy. On success the caller
// owns the response body. On failure the returned error is one of the typed
// errors in this package and any response body has been closed.
func (e *Executor) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	serverBackoff := e.newExponential(e.policy.ServerErrorBase)
	transportBackoff := e.newExponential(e.policy.TransportBase)

	var rateLimited, serverFailures, transportFailures int

	for {
		attempts := rateLimited + serverFailures + transportFailures + 1

		res, err := e.breaker.Execute(func() (*attemptResult, error) {
			resp, doErr := e.client.Do(req.Clone(ctx))
			if doErr != nil {
				return nil, doErr
			}
			// 5xx counts as a breaker failure so a flapping upstream
			// eventually opens the circuit.
			if resp.StatusCode >= 500 {
				return &attemptResult{resp: resp}, &ServerError{
					Endpoint:   endpoint,
					StatusCode: resp.StatusCode,
				}
			}
			return &attemptResult{resp: resp}, nil
		})

		if err == nil {
			resp := res.resp
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				e.observe("success")
				return resp, nil

			case resp.StatusCode == http.StatusNotFound:
				drain(resp)
				e.observe("not_found")
				return nil, &NotFoundError{Endpoint: endpoint}

			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				drain(resp)
				e.observe("auth")
				return nil, &AuthError{Endpoint: endpoint, StatusCode: resp.StatusCode}

			case resp.StatusCode == http.StatusTooManyRequests:
				drain(resp)
				if rateLimited >= len(e.policy.RateLimitDelays) {
					e.observe("rate_limited")
					return nil, &RateLimitError{Endpoint: endpoint, Attempts: attempts}
				}
				delay := e.policy.RateLimitDelays[rateLimited]
				rateLimited++
				if sleepErr := e.retrySleep(ctx, endpoint, attempts, delay, "rate limited"); sleepErr != nil {
					return nil, sleepErr
				}
				continue

			default:
				body := readBody(resp)
				e.observe("upstream_error")
				return nil, &UpstreamError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: body}
			}
		}

		// Breaker shed the call without touching the network.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			e.observe("transport")
			return nil, &TransportError{Endpoint: endpoint, Attempts: attempts, Err: ErrCircuitOpen}
		}

		var serverErr *ServerError
		if errors.As(err, &serverErr) {
			if res != nil {
				drain(res.resp)
			}
			serverFailures++
			if serverFailures >= e.policy.ServerErrorAttempts {
				serverErr.Attempts = attempts
				e.observe("server_error")
				return nil, serverErr
			}
			if sleepErr := e.retrySleep(ctx, endpoint, attempts, serverBackoff.NextBackOff(), "server error"); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}

		// Anything else is a transport failure (DNS, timeout, reset).
		transportFailures++
		if transportFailures >= e.policy.TransportAttempts {
			e.observe("transport")
			return nil, &TransportError{Endpoint: endpoint, Attempts: attempts, Err: err}
		}
		if sleepErr := e.retrySleep(ctx, endpoint, attempts, transportBackoff.NextBackOff(), "transport error"); sleepErr != nil {
			return nil, sleepErr
		}
	}
}

// BreakerState returns the current circuit breaker state.
func (e *Executor) BreakerState() gobreaker.State {
	return e.breaker.State()
}

// newExponential builds a deterministic doubling schedule from base.
func (e *Executor) newExponential(base time.Duration) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// retrySleep waits delay before the next attempt, honoring ctx cancellation.
func (e *Executor) retrySleep(ctx context.Context, endpoint string, attempt int, delay time.Duration, reason string) error {
	e.logger.Warn().
		Str("endpoint", endpoint).
		Int("attempt", attempt).
		Dur("delay", delay).
		Msg("retrying after " + reason)

	if e.observer != nil {
		e.observer.UpstreamRetry(e.policy.Name)
	}

	timer := e.clock.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return &TransportError{Endpoint: endpoint, Attempts: attempt, Err: ctx.Err()}
	case <-timer.Chan():
		return nil
	}
}

func (e *Executor) observe(outcome string) {
	if e.observer != nil {
		e.observer.UpstreamRequest(e.policy.Name, outcome)
	}
}

func drain(resp *http.Response) {
	if resp == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}

func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return ""
	}
	return string(b)
}
