package docstore

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Backends wrap optimistic-transaction conflicts with this type so that
// [Retry] knows to run the read-modify-write again.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last unwrapped error if all attempts fail, or ctx.Err() if
// cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	var re *RetryableError
	if errors.As(lastErr, &re) {
		return re.Err
	}
	return lastErr
}

// Startup ping tuning for the networked backends.
const (
	PingAttempts = 3
	PingDelay    = 100 * time.Millisecond
)

// Ping calls ping up to [PingAttempts] times, doubling the delay from
// [PingDelay], until the server answers. Every failure is retried; the last
// one is returned.
func Ping(ctx context.Context, ping func(context.Context) error) error {
	return Retry(ctx, PingAttempts, PingDelay, func() error {
		return Retryable(ping(ctx))
	})
}

// Conflict retry tuning shared by the optimistic backends.
const (
	ConflictAttempts = 64
	ConflictDelay    = time.Millisecond
	ConflictMaxDelay = 20 * time.Millisecond
)

// RetryConflicts runs fn until it succeeds, returns a non-retryable error or
// exhausts [ConflictAttempts]. Unlike [Retry] the backoff is capped at
// [ConflictMaxDelay] and jittered so that writers racing on one document
// do not keep colliding.
func RetryConflicts(ctx context.Context, fn func() error) error {
	var err error
	for i := range ConflictAttempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		wait := min(ConflictDelay<<min(i, 16), ConflictMaxDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rand.N(wait) + time.Microsecond):
		}
	}
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}
