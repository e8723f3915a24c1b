// Package retry implements bounded exponential backoff with the policy as an
// explicit parameter, so call sites state their attempts and delays instead of
// relying on framework-level redelivery.
package retry

import (
	"context"
	"time"
)

// Policy describes a bounded backoff: Attempts total tries, starting at
// BaseDelay, multiplied by Multiplier per attempt, capped at MaxDelay.
type Policy struct {
	Attempts   int
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
}

// Default is the in-process reconciliation policy: 5 attempts, 1s -> 12s, x2.
var Default = Policy{
	Attempts:   5,
	BaseDelay:  time.Second,
	Multiplier: 2,
	MaxDelay:   12 * time.Second,
}

// Publish is the outbound event publish policy: 10 attempts, 1s -> 12s, x2.
var Publish = Policy{
	Attempts:   10,
	BaseDelay:  time.Second,
	Multiplier: 2,
	MaxDelay:   12 * time.Second,
}

// Delay returns the wait before the given zero-based retry attempt.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs op until it succeeds or the policy's attempts are exhausted,
// retrying on every error. Returns the last error.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	return DoIf(ctx, p, op, func(error) bool { return true })
}

// DoIf runs op with bounded backoff, retrying only while retryable returns
// true. Context cancellation aborts the wait and returns ctx.Err().
func DoIf(ctx context.Context, p Policy, op func(ctx context.Context) error, retryable func(error) bool) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(p.Delay(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
	}
	return err
}
