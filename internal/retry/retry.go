// Package retry provides a bounded fixed-delay retry policy.
//
// The sleeper is injectable so rate-limit handling can be tested without
// real time delays, and every wait honors context cancellation.
package retry

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy describes how a transient failure is retried.
type Policy struct {
	Attempts int           // total attempts, including the first call
	Delay    time.Duration // fixed delay between attempts
	Sleep    Sleeper       // nil means Wait
}

// Wait is the default Sleeper. It returns early with the context error if
// ctx is cancelled during the delay.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn, retrying while retryable reports the returned error as
// transient and attempts remain. The last error is returned unchanged once
// attempts are exhausted, so callers can still match it with errors.Is.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, fn func() error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Wait
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if serr := sleep(ctx, p.Delay); serr != nil {
				return serr
			}
		}
		err = fn()
		if err == nil || retryable == nil || !retryable(err) {
			return err
		}
	}
	return err
}
