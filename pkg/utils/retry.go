package utils

import (
	"context"
	"fmt"
	"time"
)

// Retrier re-runs an operation while it fails with a recoverable error
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// NewRetrier creates a retrier with a linear backoff of baseDelay per attempt
func NewRetrier(maxAttempts int, baseDelay time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// Do runs fn up to MaxAttempts times. Non-recoverable errors stop immediately.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRecoverable(err) {
			return err
		}

		if attempt < r.MaxAttempts && r.BaseDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.BaseDelay * time.Duration(attempt)):
			}
		}
	}

	if r.MaxAttempts == 1 {
		return lastErr
	}
	return WrapError(lastErr, "", fmt.Sprintf("operation failed after %d attempts", r.MaxAttempts))
}
