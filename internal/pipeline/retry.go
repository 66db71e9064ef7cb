package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/pdfmarks/internal/store"
)

const MaxRetries = 3

// IsRetryable checks if an error is worth retrying. Only SQLite lock
// conflicts on the dump cache are; extraction itself is deterministic.
func IsRetryable(err error) bool {
	return store.IsBusy(err)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 50 * time.Millisecond
	if base > 2*time.Second {
		base = 2 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// withRetry calls fn until it succeeds, fails with an error that is not
// retryable, runs out of attempts or ctx is done.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := range MaxRetries {
		if err = fn(); err == nil || !IsRetryable(err) || attempt == MaxRetries-1 {
			return err
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
