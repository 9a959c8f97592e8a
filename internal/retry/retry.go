// Package retry runs an operation under a bounded, randomized exponential
// backoff and reports how it went.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"regscrape/internal/config"
)

// Result describes a finished retry loop.
type Result struct {
	// Attempts is how many times the operation ran.
	Attempts int
	// Waits are the backoff intervals slept between attempts.
	Waits []time.Duration
	// Err is the last error when every attempt failed, nil on success.
	Err error
}

// Succeeded reports whether some attempt returned nil.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Exhausted reports whether the loop gave up.
func (r Result) Exhausted() bool {
	return !r.Succeeded()
}

// NotifyFunc observes a failed attempt before the wait that follows it.
type NotifyFunc func(err error, attempt int, wait time.Duration)

// Retrier retries operations according to a policy.
type Retrier struct {
	policy config.RetryPolicy
	timer  backoff.Timer
	notify NotifyFunc
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(t backoff.Timer) Option {
	return func(r *Retrier) {
		r.timer = t
	}
}

// WithNotify registers a callback for failed attempts.
func WithNotify(fn NotifyFunc) Option {
	return func(r *Retrier) {
		r.notify = fn
	}
}

// New creates a retrier for the policy.
func New(policy config.RetryPolicy, opts ...Option) *Retrier {
	r := &Retrier{policy: policy}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Permanent wraps an error that must not be retried.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func (r *Retrier) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialDelay()
	b.RandomizationFactor = r.policy.JitterFactor()
	b.Multiplier = r.policy.BackoffMultiplier
	b.MaxInterval = r.policy.MaxDelay()
	b.MaxElapsedTime = 0

	retries := r.policy.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Do runs op until it succeeds, returns a permanent error, the context ends
// or the attempt ceiling is reached.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) Result {
	var res Result

	res.Err = backoff.RetryNotifyWithTimer(
		func() error {
			res.Attempts++
			return op(ctx)
		},
		r.backOff(ctx),
		func(err error, wait time.Duration) {
			res.Waits = append(res.Waits, wait)
			if r.notify != nil {
				r.notify(err, res.Attempts, wait)
			}
		},
		r.timer,
	)

	return res
}
