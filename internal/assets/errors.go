package assets

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the image host answers 404.
	ErrNotFound = errors.New("image not found")
	// ErrNetwork covers transport failures and unexpected status codes.
	ErrNetwork = errors.New("network error")
	// ErrDecode is returned for bytes that are not a supported image format.
	ErrDecode = errors.New("unsupported image data")
)

// RetryableError marks a transient failure that Retry may attempt again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Retry runs fn up to attempts times, doubling delay after each retryable
// failure. Other errors are returned immediately.
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
	return lastErr
}
