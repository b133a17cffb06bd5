package apperr

import (
	"context"
	"math/rand"
	"time"
)

const (
	// DefaultAttempts bounds the internal retry of transient failures
	// before the last error is surfaced to the caller.
	DefaultAttempts = 3

	baseBackoff = 25 * time.Millisecond
)

// Retry runs fn up to attempts times, retrying only on TransientError
// with jittered exponential backoff between attempts. Any other error,
// and the final transient error once attempts are exhausted, is
// returned as-is.
func Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		backoff := baseBackoff << uint(i)
		sleep := backoff + time.Duration(rand.Int63n(int64(backoff)))
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
