package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is matched by every error returned from Poll after the
// attempt budget ran out.
var ErrExhausted = errors.New("retry budget exhausted")

// Policy is a fixed-interval, fixed-budget polling policy.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// Budget returns the worst-case time spent sleeping under the policy.
func (p Policy) Budget() time.Duration {
	if p.MaxAttempts <= 1 {
		return 0
	}
	return time.Duration(p.MaxAttempts-1) * p.Interval
}

// ExhaustedError is returned by Poll when the operation did not succeed
// within MaxAttempts attempts.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap exposes both ErrExhausted and the last operation error.
func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrExhausted, e.Last}
}

// AttemptFunc is called after every failed attempt, e.g. for logging or metrics.
type AttemptFunc func(attempt int, err error)

// Poll calls op until it succeeds, returns a Fatal error, the context is
// cancelled, or MaxAttempts calls have been made. It sleeps Interval between
// calls and never after the last one, so a permanently failing op is invoked
// exactly MaxAttempts times.
func Poll[T any](ctx context.Context, p Policy, op func(context.Context) (T, error), onFail ...AttemptFunc) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if IsFatal(err) {
			return zero, err
		}
		lastErr = err
		for _, fn := range onFail {
			fn(attempt, err)
		}

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return zero, fmt.Errorf("polling cancelled after %d attempts: %w", attempt, err)
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}
