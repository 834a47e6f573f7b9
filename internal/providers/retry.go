package providers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"
)

// RetryConfig controls RetryDo.
type RetryConfig struct {
	Attempts int           // total attempts, >= 1
	MinDelay time.Duration // first backoff
	MaxDelay time.Duration // backoff ceiling
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Attempts: 3, MinDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second}
}

// RetryDo runs fn until it succeeds, returns a non-retryable error or the
// attempts are spent. Only *HTTPError values that report Retryable are
// retried; a Retry-After hint overrides the exponential backoff.
func RetryDo[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	delay := cfg.MinDelay

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}

		var httpErr *HTTPError
		if attempt >= cfg.Attempts || !errors.As(err, &httpErr) || !httpErr.Retryable() {
			return zero, err
		}

		wait := delay
		if httpErr.RetryAfter > 0 {
			wait = httpErr.RetryAfter
		}
		if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}
		slog.Debug("provider request failed, retrying", "attempt", attempt, "wait", wait, "status", httpErr.Status)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}

// ParseRetryAfter parses a Retry-After header given in seconds.
// HTTP-date values and garbage yield 0.
func ParseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
