// Package retryx wraps sethvargo/go-retry with the backoff policy the
// remote backends use for transient I/O failures.
package retryx

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Transient marks err as retryable. Unmarked errors abort Do immediately.
func Transient(err error) error {
	return retry.RetryableError(err)
}

// Do runs fn, retrying errors marked Transient with fibonacci backoff
// starting at base, up to maxRetries additional attempts. Respects ctx
// cancellation between attempts.
func Do(ctx context.Context, maxRetries uint64, base time.Duration, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(maxRetries, retry.NewFibonacci(base))
	return retry.Do(ctx, b, fn)
}
