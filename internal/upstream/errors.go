package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrCircuitOpen is returned when the circuit breaker is open and calls are
// being shed without reaching the upstream.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// RateLimitError is returned when the upstream kept answering 429 after the
// policy's fixed delay schedule was exhausted.
type RateLimitError struct {
	Endpoint string
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded after %d attempts: %s", e.Attempts, e.Endpoint)
}

// NotFoundError is returned for HTTP 404. Never retried: the resource will
// not appear by asking again.
type NotFoundError struct {
	Endpoint string
}

func (e *NotFoundError) Error() string {
	return "resource not found: " + e.Endpoint
}

// AuthError is returned for HTTP 401/403. Never retried. Optional enrichment
// clients typically downgrade this to an absent result.
type AuthError struct {
	Endpoint   string
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authorization failed (%d): %s", e.StatusCode, e.Endpoint)
}

// ServerError is returned when the upstream kept answering 5xx after the
// exponential retry budget was exhausted.
type ServerError struct {
	Endpoint   string
	StatusCode int
	Attempts   int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("upstream server error %d (%s) after %d attempts: %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.Attempts, e.Endpoint)
}

// TransportError is returned for network failures, timeouts and open
// circuits after the transport retry budget was exhausted.
type TransportError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error after %d attempts: %s: %v", e.Attempts, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError is returned for any other unexpected status code. Never
// retried. Body carries a truncated copy of the response for diagnosis.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Endpoint)
}

// IsSoft reports whether err is an error class that optional enrichment
// clients swallow instead of propagating (auth failures and exhausted rate
// limits).
func IsSoft(err error) bool {
	var authErr *AuthError
	var rateErr *RateLimitError
	return errors.As(err, &authErr) || errors.As(err, &rateErr)
}
