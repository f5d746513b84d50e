package remote

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy is the explicit retry schedule shared by every network call
// site: a small fixed attempt bound with constant backoff. Only errors of
// the ErrUnavailable class are retried; 4xx-class failures surface
// immediately so callers can apply their own recovery (e.g. the read-back
// check on ErrConflict).
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts uint64

	// Backoff is the constant delay between attempts.
	Backoff time.Duration
}

// DefaultRetryPolicy matches the transport defaults: three attempts with a
// short pause between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 500 * time.Millisecond}
}

// Do runs op under the policy. op is retried while it returns an error
// wrapping ErrUnavailable and attempts remain; any other error, or ctx
// cancellation, stops the loop immediately.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	pause := p.Backoff
	if pause <= 0 {
		pause = time.Millisecond
	}

	backoff := retry.WithMaxRetries(attempts-1, retry.NewConstant(pause))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}
