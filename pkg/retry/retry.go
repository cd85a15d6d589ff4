package retry

import (
	"context"
	"errors"
	"time"
)

// SleepFunc blocks the caller for the given duration. Tests substitute a
// counting implementation; production code uses time.Sleep.
type SleepFunc func(d time.Duration)

// Config defines retry behavior.
type Config struct {
	// MaxAttempts is the maximum number of attempts, including the first one.
	MaxAttempts int
	// Wait is the fixed interval slept between attempts.
	Wait time.Duration
	// Sleep performs the wait. Defaults to time.Sleep.
	Sleep SleepFunc
	// OnRetry is called before each sleep, for observability.
	OnRetry func(attempt int, err error)
}

// DefaultConfig returns the configuration used for database work:
// three attempts with a 100ms wait.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Wait:        100 * time.Millisecond,
	}
}

// Normalize validates the configuration and fills in defaults.
func (c *Config) Normalize() error {
	if c.MaxAttempts <= 0 {
		return errors.New("retry: MaxAttempts must be positive")
	}
	if c.Wait < 0 {
		return errors.New("retry: Wait cannot be negative")
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	return nil
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// IsRetryableFunc reports whether an error should trigger another attempt.
type IsRetryableFunc func(err error) bool

// Do executes fn with bounded retry, treating every error as retryable.
func Do(ctx context.Context, config Config, fn RetryableFunc) error {
	return DoWithRetryable(ctx, config, fn, func(error) bool { return true })
}

// DoWithRetryable executes fn with bounded retry. A non-retryable error is
// returned immediately; otherwise the last attempt's error is returned after
// the attempts are exhausted.
func DoWithRetryable(ctx context.Context, config Config, fn RetryableFunc, isRetryable IsRetryableFunc) error {
	cfg := config
	if err := cfg.Normalize(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}
		cfg.Sleep(cfg.Wait)
	}

	return lastErr
}
