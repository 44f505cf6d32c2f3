// Package retry runs an operation under a bounded attempt budget.
//
// A Policy pairs a Backoff (how long to wait after a failed attempt) with the
// attempt budget. What happens once the budget is spent is decided per call by
// an Exhaustion: FailOpen substitutes a fallback value, FailClosed hands the
// last error back to the caller.
package retry

import (
	"context"
	"errors"
	"time"
)

// Backoff returns the wait after the given zero-based attempt failed.
type Backoff func(attempt int) time.Duration

// Constant waits the same delay after every failed attempt.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Exponential waits base * 2^attempt after the failed attempt.
func Exponential(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base
		for i := 0; i < attempt; i++ {
			d *= 2
		}
		return d
	}
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
}

// Policy configures one retrying operation.
type Policy struct {
	// MaxAttempts counts every call including the first. Values below 1 mean 1.
	MaxAttempts int
	Backoff     Backoff
	Sleep       Sleeper

	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = Constant(0)
	}
	if p.Sleep == nil {
		p.Sleep = Sleep
	}
	return p
}

// Exhaustion decides the outcome once every attempt has failed.
type Exhaustion[T any] func(lastErr error) (T, error)

// FailOpen degrades to fallback and swallows the error.
func FailOpen[T any](fallback T) Exhaustion[T] {
	return func(error) (T, error) {
		return fallback, nil
	}
}

// FailClosed returns the last error unchanged.
func FailClosed[T any]() Exhaustion[T] {
	return func(lastErr error) (T, error) {
		var zero T
		return zero, lastErr
	}
}

// Do calls op until it succeeds or the policy's attempts are spent.
//
// Attempt n+1 never starts before attempt n has returned. A wait interrupted by
// ctx ends the loop early; exhaust then receives ctx.Err() joined with the last
// attempt's error.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error), exhaust Exhaustion[T]) (T, error) {
	p = p.withDefaults()

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		out, err := op(ctx, attempt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == p.MaxAttempts-1 {
			break
		}

		wait := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if serr := p.Sleep(ctx, wait); serr != nil {
			return exhaust(errors.Join(serr, lastErr))
		}
	}
	return exhaust(lastErr)
}
