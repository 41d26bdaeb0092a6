package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/mockprep/internal/metrics"
)

// Retry reasons, used as the metrics label.
const (
	retryRateLimit   = "rate_limit"
	retryUnavailable = "unavailable"
	retryInvalid     = "invalid_response"
	retryTransient   = "transient"
)

// RetryProvider retries transient provider failures with exponential
// backoff and jitter. Malformed structured output is retried once.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	invalidSeen := false

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		reason := classify(err)
		if reason == retryInvalid {
			if invalidSeen {
				return nil, err
			}
			invalidSeen = true
		}
		if reason == "" || attempt == r.config.MaxAttempts-1 {
			return nil, err
		}

		wait, ok := r.backoff(attempt, err)
		if !ok {
			return nil, err
		}
		metrics.LLMRetries.WithLabelValues(PurposeFrom(ctx), reason).Inc()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// classify returns why err may be retried, or "" when it must not be.
func classify(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ""
	}
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return ""
	}
	var inv *ErrInvalidResponse
	if errors.As(err, &inv) {
		return retryInvalid
	}
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return retryRateLimit
	}
	var unavail *ErrProviderUnavailable
	if errors.As(err, &unavail) {
		return retryUnavailable
	}
	// Network errors and anything unrecognized.
	return retryTransient
}

// backoff computes the wait before the next attempt. It reports false
// when the provider asked for a pause longer than MaxRetryAfter.
func (r *RetryProvider) backoff(attempt int, err error) (time.Duration, bool) {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		if r.config.MaxRetryAfter > 0 && rl.RetryAfter > r.config.MaxRetryAfter {
			return 0, false
		}
		return rl.RetryAfter, true
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}
	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait), true
}
