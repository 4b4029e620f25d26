// Package retry provides exponential backoff for remote-store operations.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy controls the backoff schedule. Attempts counts total tries, not
// retries; the base delay doubles after every failure.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

// Default matches the store-wide write policy: 3 attempts, 1s base, doubling.
func Default() Policy {
	return Policy{Attempts: 3, BaseDelay: time.Second}
}

// Permanent classifies errors that must not be retried.
type Permanent func(error) bool

// Do runs fn until it succeeds, a permanent error occurs, the attempts are
// exhausted, or ctx is done. The last error is returned on exhaustion.
func Do(ctx context.Context, p Policy, permanent Permanent, fn func(context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}

	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if permanent != nil && permanent(err) {
				return err
			}
		}

		if attempt == p.Attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return lastErr
}
