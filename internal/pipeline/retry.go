package pipeline

import (
	"context"
	"time"
)

// RetryConfig shapes the per-file generation retry policy.
type RetryConfig struct {
	MaxRetries int           // total attempts, not retries after the first
	BaseDelay  time.Duration // delay before the second attempt
	MaxDelay   time.Duration // ceiling on any single delay
	Multiplier float64       // growth factor between attempts
}

// DefaultRetryConfig returns the policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

// retryWithBackoff runs fn up to config.MaxRetries times, sleeping an
// exponentially growing delay between attempts. A cancelled context stops
// further attempts immediately; otherwise the last attempt's error is
// returned.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	backoff := config.BaseDelay

	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt >= config.MaxRetries {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * config.Multiplier)
		if backoff > config.MaxDelay {
			backoff = config.MaxDelay
		}
	}
}
