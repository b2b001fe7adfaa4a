package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryAttempts is the bounded number of attempts for storage calls that may
// fail transiently. Exhausting the budget surfaces the last error; nothing is
// retried beyond it.
const RetryAttempts = 3

// RetryBaseDelay is the backoff unit; the delay doubles after every failed
// attempt.
var RetryBaseDelay = 200 * time.Millisecond

// WithRetry runs fn up to RetryAttempts times with exponential backoff between
// attempts. It stops early when fn succeeds, when fn reports a non-retryable
// error via shouldRetry, or when ctx is done.
func WithRetry(ctx context.Context, op string, fn func() error, shouldRetry func(error) bool) error {
	var err error
	for attempt := 1; attempt <= RetryAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}
		if attempt == RetryAttempts {
			break
		}
		GetLogger().Warn("retrying operation",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(RetryBaseDelay << (attempt - 1)):
		}
	}
	return err
}
