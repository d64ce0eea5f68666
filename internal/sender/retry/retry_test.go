package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", errors.New("request timeout"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"rate limit", errors.New("429 too many requests"), true},
		{"validation", errors.New("validation error: bad address"), false},
		{"invalid", errors.New("invalid recipient"), false},
		{"unknown", errors.New("something else"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), fastConfig(), "test", func() error {
		attempts++
		if attempts < 2 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestWithRetry_PermanentFailureFailsFast(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), fastConfig(), "test", func() error {
		attempts++
		return errors.New("invalid recipient")
	})
	if err == nil {
		t.Fatal("WithRetry() succeeded, want error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on permanent failure)", attempts)
	}
}

func TestWithRetry_ExhaustsRetries(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), fastConfig(), "test", func() error {
		attempts++
		return errors.New("timeout")
	})
	if err == nil {
		t.Fatal("WithRetry() succeeded, want error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, fastConfig(), "test", func() error {
		return errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithRetry() error = %v, want context.Canceled", err)
	}
}
