/*
retry.go - Bounded retry with exponential backoff and jitter

PURPOSE:
  Wraps remote calls in a retry loop that only fires on transient
  failures, backs off exponentially, and aborts the moment the caller's
  context is done (a caller timeout must short-circuit mid-backoff, not
  ride out the full retry budget).

DEFAULTS:
  3 attempts, 1s base delay, factor 2, jitter drawn from [0, 500ms).

SEE ALSO:
  - client.go: applies the policy to every Backend call
  - sheets.go: IsTransient classification
*/
package sheets

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy configures the retry loop for remote calls.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
	MaxJitter   time.Duration
}

// DefaultRetryPolicy matches the remote service's published rate-limit
// guidance: three attempts, one second base, doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Factor:      2.0,
		MaxJitter:   500 * time.Millisecond,
	}
}

// do runs fn up to MaxAttempts times. Non-transient errors return
// immediately; transient errors back off and retry. After the budget is
// spent the last error is returned wrapped, so callers can still inspect
// the underlying failure with errors.As.
func (p RetryPolicy) do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		sleep := delay
		if p.MaxJitter > 0 {
			sleep += time.Duration(rand.Int63n(int64(p.MaxJitter)))
		}
		delay = time.Duration(float64(delay) * p.Factor)

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", attempts, lastErr)
}
