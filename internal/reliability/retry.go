package reliability

import (
	"context"
	"time"
)

// RetryPolicy decides whether a failed broker operation is attempted again.
type RetryPolicy interface {
	// ShouldRetry determines if another attempt should be made after the
	// given number of completed attempts.
	ShouldRetry(attempts int, err error) (bool, time.Duration)
	// MaxAttempts returns the total attempt budget.
	MaxAttempts() int
}

// FixedDelay retries a fixed number of times with a constant delay between
// attempts. The connector default is 3 attempts, 1 second apart.
type FixedDelay struct {
	Delay    time.Duration
	Attempts int
}

// NewFixedDelay creates a fixed delay policy.
func NewFixedDelay(delay time.Duration, attempts int) *FixedDelay {
	return &FixedDelay{
		Delay:    delay,
		Attempts: attempts,
	}
}

// ShouldRetry implements RetryPolicy.
func (f *FixedDelay) ShouldRetry(attempts int, err error) (bool, time.Duration) {
	if attempts >= f.Attempts {
		return false, 0
	}
	if !isRetryable(err) {
		return false, 0
	}
	return true, f.Delay
}

// MaxAttempts implements RetryPolicy.
func (f *FixedDelay) MaxAttempts() int {
	return f.Attempts
}

// Retry executes fn until it succeeds, the policy gives up, or the context is
// cancelled. Non-retryable errors pass through untouched after the first
// attempt; exhausted retries surface a *RetryError that unwraps to the last
// failure so callers can still match it with errors.Is.
func Retry(ctx context.Context, policy RetryPolicy, op string, fn func() error) error {
	start := time.Now()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		shouldRetry, delay := policy.ShouldRetry(attempt, err)
		if !shouldRetry {
			if !isRetryable(err) {
				return err
			}
			return &RetryError{
				Op:          op,
				Attempts:    attempt,
				MaxAttempts: policy.MaxAttempts(),
				LastError:   err,
				Duration:    time.Since(start),
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// isRetryable determines if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	type retryable interface {
		IsRetryable() bool
	}

	if r, ok := err.(retryable); ok {
		return r.IsRetryable()
	}

	// Unknown failures are assumed transient.
	return true
}

// Permanent marks an error as non-retryable. The retry helper returns it to
// the caller after the first attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

type permanentError struct {
	err error
}

func (p permanentError) Error() string     { return p.err.Error() }
func (p permanentError) IsRetryable() bool { return false }
func (p permanentError) Unwrap() error     { return p.err }
