package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for asset fetches.
var (
	// ErrNotFound is returned when an asset does not exist at its source.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned for transport failures, 429 and 5xx responses.
	ErrNetwork = errors.New("network error")

	// ErrTooLarge is returned when an asset exceeds the size limit.
	ErrTooLarge = errors.New("asset too large")
)

// RetryableError marks an error that should trigger another attempt.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is wrapped with [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff is an exponential retry policy.
type Backoff struct {
	Attempts int           // total tries, at least 1
	Delay    time.Duration // wait before the second try, doubled after each failure
	MaxDelay time.Duration // cap on a single wait; 0 means uncapped
}

// DefaultBackoff is used for remote asset fetches.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. It returns ctx.Err() if the context ends while waiting.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var lastErr error

	for i := range attempts {
		if lastErr = fn(); lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return lastErr
}
