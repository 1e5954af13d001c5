package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// BackoffConfig contains configuration for exponential backoff
type BackoffConfig struct {
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
	MaxAttempts  int           `json:"max_attempts"`
	Jitter       bool          `json:"jitter"`
}

// DefaultBackoffConfig returns delays short enough to retry a webhook
// handler inside one delivery.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  3,
		Jitter:       true,
	}
}

// Validate checks the configured bounds
func (c BackoffConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.InitialDelay < 0 || c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("delays must satisfy 0 <= initial_delay <= max_delay, got %v and %v", c.InitialDelay, c.MaxDelay)
	}
	if c.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1, got %g", c.Multiplier)
	}
	return nil
}

// Backoff implements exponential backoff with optional jitter
type Backoff struct {
	config BackoffConfig
}

// NewBackoff creates a new exponential backoff instance
func NewBackoff(config BackoffConfig) *Backoff {
	return &Backoff{config: config}
}

// Retry runs operation until it succeeds, returns an error isRetryable
// rejects, or MaxAttempts is reached. A nil isRetryable retries every error.
// It returns the number of attempts made and the last error.
func (b *Backoff) Retry(ctx context.Context, operation func(ctx context.Context) error, isRetryable func(error) bool) (int, error) {
	var lastErr error
	attempt := 0

	for attempt < b.config.MaxAttempts {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return attempt, lastErr
			}
			return attempt, err
		}

		attempt++
		lastErr = operation(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if isRetryable != nil && !isRetryable(lastErr) {
			return attempt, lastErr
		}
		if attempt == b.config.MaxAttempts {
			break
		}

		timer := time.NewTimer(b.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, lastErr
		case <-timer.C:
		}
	}

	return attempt, lastErr
}

// Delay returns the wait after the given 1-based attempt
func (b *Backoff) Delay(attempt int) time.Duration {
	delay := float64(b.config.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= b.config.Multiplier
		if delay >= float64(b.config.MaxDelay) {
			break
		}
	}
	if delay > float64(b.config.MaxDelay) {
		delay = float64(b.config.MaxDelay)
	}

	// ±25% jitter, clamped to [InitialDelay, MaxDelay]
	if b.config.Jitter && delay > 0 {
		delay += (rand.Float64() - 0.5) * 0.5 * delay
		if delay < float64(b.config.InitialDelay) {
			delay = float64(b.config.InitialDelay)
		}
		if delay > float64(b.config.MaxDelay) {
			delay = float64(b.config.MaxDelay)
		}
	}

	return time.Duration(delay)
}
