package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTemporary = errors.New("temporary error")

func fastConfig(attempts int) BackoffConfig {
	return BackoffConfig{
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  attempts,
	}
}

func TestBackoff_DefaultConfig(t *testing.T) {
	config := DefaultBackoffConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if config.MaxAttempts != 3 {
		t.Errorf("Expected max attempts of 3, got %d", config.MaxAttempts)
	}
	if config.InitialDelay != 50*time.Millisecond {
		t.Errorf("Expected initial delay of 50ms, got %v", config.InitialDelay)
	}
}

func TestBackoffConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  BackoffConfig
		wantErr bool
	}{
		{name: "valid", config: fastConfig(3)},
		{name: "zero attempts", config: fastConfig(0), wantErr: true},
		{name: "max below initial", config: BackoffConfig{InitialDelay: time.Second, MaxDelay: time.Millisecond, Multiplier: 2, MaxAttempts: 1}, wantErr: true},
		{name: "shrinking multiplier", config: BackoffConfig{MaxDelay: time.Second, Multiplier: 0.5, MaxAttempts: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoff_SuccessFirstAttempt(t *testing.T) {
	backoff := NewBackoff(fastConfig(3))

	attempts, err := backoff.Retry(context.Background(), func(context.Context) error { return nil }, nil)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestBackoff_SuccessAfterRetries(t *testing.T) {
	backoff := NewBackoff(fastConfig(3))

	calls := 0
	attempts, err := backoff.Retry(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTemporary
		}
		return nil
	}, nil)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("Expected 3 attempts, got %d (calls %d)", attempts, calls)
	}
}

func TestBackoff_ExhaustsAttempts(t *testing.T) {
	backoff := NewBackoff(fastConfig(4))

	attempts, err := backoff.Retry(context.Background(), func(context.Context) error { return errTemporary }, nil)
	if !errors.Is(err, errTemporary) {
		t.Errorf("Expected last error, got %v", err)
	}
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got %d", attempts)
	}
}

func TestBackoff_NonRetryableStopsImmediately(t *testing.T) {
	backoff := NewBackoff(fastConfig(5))
	permanent := errors.New("permanent")

	attempts, err := backoff.Retry(context.Background(), func(context.Context) error { return permanent },
		func(err error) bool { return !errors.Is(err, permanent) })

	if !errors.Is(err, permanent) {
		t.Errorf("Expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestBackoff_ContextCancellation(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{
		InitialDelay: time.Second,
		MaxDelay:     time.Second,
		Multiplier:   1,
		MaxAttempts:  5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	attempts, err := backoff.Retry(ctx, func(context.Context) error { return errTemporary }, nil)

	if !errors.Is(err, errTemporary) {
		t.Errorf("Expected the operation's error after cancellation, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("Retry did not stop on cancellation")
	}
}

func TestBackoff_CancelledBeforeFirstAttempt(t *testing.T) {
	backoff := NewBackoff(fastConfig(3))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts, err := backoff.Retry(ctx, func(context.Context) error { return nil }, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if attempts != 0 {
		t.Errorf("Expected 0 attempts, got %d", attempts)
	}
}

func TestBackoff_Delay(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  10,
	})

	expected := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		50 * time.Millisecond,
		50 * time.Millisecond,
	}
	for i, want := range expected {
		if got := backoff.Delay(i + 1); got != want {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, want)
		}
	}
}

func TestBackoff_DelayJitterBounds(t *testing.T) {
	backoff := NewBackoff(BackoffConfig{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  5,
		Jitter:       true,
	})

	for i := 0; i < 100; i++ {
		d := backoff.Delay(3)
		if d < 30*time.Millisecond || d > 50*time.Millisecond {
			t.Fatalf("jittered delay %v outside 25%% of 40ms", d)
		}
	}
}
