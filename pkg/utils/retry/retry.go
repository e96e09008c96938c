package retry

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Backoff waits before the next attempt.
//
// It returns ctx.Err() when ctx is done while waiting.
type Backoff func(context.Context) error

// StaticBackoff waits for a fixed interval.
//
// # Args
//
// - interval: interval to wait.
//
// # Returns
//
// Backoff function, which waits for `interval` or for context to be done.
func StaticBackoff(interval time.Duration) Backoff {
	return ExponentialBackoff(interval, 1, interval)
}

// ExponentialBackoff waits with exponential backoff.
//
// # Args
//
// - initial: interval for the first wait.
//
// - r: multiplier of interval.
//
// - max: upper bound of interval.
//
// # Returns
//
// Backoff function.
// For N-th call, it waits for `min(initial * r^N, max)` or context to be done.
func ExponentialBackoff(initial time.Duration, r float64, max time.Duration) Backoff {
	interval := initial
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			interval = time.Duration(float64(interval) * r)
			if max < interval {
				interval = max
			}
			return nil
		}
	}
}

// Do calls f until it succeeds, waiting with b between attempts.
//
// # Args
//
// - ctx: context. Do gives up when it is done.
//
// - what: name of the operation, for logs.
//
// - b: backoff function
//
// - f: function to be called.
//
// # Returns
//
// - T: return value of f when it succeeds
//
// - error: nil on success. Otherwise, the last error of f joined with the error of ctx.
func Do[T any](ctx context.Context, what string, b Backoff, f func(context.Context) (T, error)) (T, error) {
	for attempt := 1; ; attempt++ {
		v, err := f(ctx)
		if err == nil {
			return v, nil
		}
		logrus.WithFields(logrus.Fields{
			"target":  what,
			"attempt": attempt,
		}).WithError(err).Warn("not ready. retrying")

		if berr := b(ctx); berr != nil {
			return v, errors.Join(err, berr)
		}
	}
}
