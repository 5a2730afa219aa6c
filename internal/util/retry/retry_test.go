package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestWithExponentialBackoff_Success(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func(context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, WithInitialDelay(time.Millisecond))

	if err != nil {
		t.Errorf("Expected no error after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_MaxRetries(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func(context.Context) error {
		attempts++
		return errors.New("persistent error")
	}, WithMaxRetries(3), WithInitialDelay(time.Millisecond))

	if err == nil {
		t.Fatal("Expected error after max retries, got nil")
	}
	// total attempts = 1 + MaxRetries
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_ContextCancellation(t *testing.T) {
	t.Parallel()
	attempts := 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, func(context.Context) error {
		attempts++
		return errors.New("error")
	}, WithInitialDelay(10*time.Millisecond))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt before context check, got: %d", attempts)
	}
}

func TestWithExponentialBackoff_FatalError(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := WithExponentialBackoff(context.Background(), func(context.Context) error {
		attempts++
		return Fatal(errors.New("fatal error"))
	}, WithInitialDelay(time.Millisecond))

	if !IsFatal(err) {
		t.Errorf("Expected fatal error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retries for fatal error), got: %d", attempts)
	}
}

func TestWithMaxDelay(t *testing.T) {
	t.Parallel()
	attempts := 0
	var delays []time.Duration
	last := time.Now()

	_ = WithExponentialBackoff(context.Background(), func(context.Context) error {
		attempts++
		now := time.Now()
		if attempts > 1 {
			delays = append(delays, now.Sub(last))
		}
		last = now
		if attempts < 5 {
			return errors.New("error")
		}
		return nil
	}, WithInitialDelay(10*time.Millisecond), WithMaxDelay(20*time.Millisecond), WithMultiplier(4))

	for i, d := range delays {
		if d > 20*time.Millisecond+50*time.Millisecond {
			t.Errorf("Delay %d exceeded max: %v", i+1, d)
		}
	}
}

func TestFatal(t *testing.T) {
	t.Parallel()
	t.Run("Nil error", func(t *testing.T) {
		t.Parallel()
		if err := Fatal(nil); err != nil {
			t.Errorf("Expected nil, got: %v", err)
		}
	})

	t.Run("Wrapped fatal error", func(t *testing.T) {
		t.Parallel()
		sentinel := errors.New("sentinel error")
		wrapped := fmt.Errorf("context: %w", Fatal(sentinel))

		if !IsFatal(wrapped) {
			t.Error("IsFatal should detect FatalError through fmt.Errorf wrapping")
		}
		if !errors.Is(wrapped, sentinel) {
			t.Error("errors.Is should find sentinel through FatalError.Unwrap()")
		}
	})

	t.Run("Plain error", func(t *testing.T) {
		t.Parallel()
		if IsFatal(errors.New("regular error")) {
			t.Error("Expected non-fatal error")
		}
	})
}
