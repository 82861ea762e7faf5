package backends

import (
	"context"
	"errors"
	"time"
)

// RetryConfig bounds retries of unavailable backends with exponential backoff.
type RetryConfig struct {
	MaxAttempts       int           `toml:"max_attempts"`
	BackoffBase       time.Duration `toml:"-"`
	BackoffMultiplier float64       `toml:"backoff_multiplier"`
	MaxBackoff        time.Duration `toml:"-"`
}

// DefaultRetryConfig returns the retry defaults for classification requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// ClassifyWithRetry invokes the backend, retrying only ErrUnavailable up to
// the configured attempt count. Other errors and successful verdicts return
// immediately. Context cancellation aborts the backoff wait.
func ClassifyWithRetry(ctx context.Context, b Backend, req Request, cfg RetryConfig) (*Verdict, error) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	backoff := cfg.BackoffBase
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		verdict, err := b.Classify(ctx, req)
		if err == nil {
			return verdict, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return nil, lastErr
}
