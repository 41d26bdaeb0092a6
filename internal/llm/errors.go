package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrRateLimit is returned when the provider throttles the caller.
// RetryAfter is zero when the provider gave no hint.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("llm rate limited, retry in %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("llm rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse carries model output that failed decoding or schema
// validation. Content holds the raw output for the event log.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("llm returned malformed output: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers transport failures and 5xx responses.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "llm provider unavailable"
	}
	return fmt.Sprintf("llm provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means structured output was cut off at MaxTokens
// and cannot be parsed.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "llm output truncated at max tokens"
}

// IsInvalidResponse reports whether err carries malformed model output.
func IsInvalidResponse(err error) bool {
	var inv *ErrInvalidResponse
	return errors.As(err, &inv)
}

// IsRateLimited reports whether err is a provider throttle.
func IsRateLimited(err error) bool {
	var rl *ErrRateLimit
	return errors.As(err, &rl)
}

// errorForStatus maps an HTTP status from a provider SDK error onto the
// package error types. retryAfter is the raw Retry-After header, if any.
func errorForStatus(status int, retryAfter string, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{RetryAfter: parseRetryAfter(retryAfter), Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// parseRetryAfter accepts the delta-seconds form of Retry-After. HTTP
// dates are ignored.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
