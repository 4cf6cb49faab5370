// Package retry re-runs an operation with exponential backoff.
// Used around store transactions that abort on serialization conflicts.
package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff computes the wait before a retry.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter is the relative spread applied to each delay, 0..1.
	Jitter float64
}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	d := float64(b.Initial)
	for i := 1; i < attempt; i++ {
		d *= b.Multiplier
		if d >= float64(b.Max) {
			break
		}
	}
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		d += d * b.Jitter * (rand.Float64()*2 - 1)
	}
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

// Retrier runs operations under one policy. Safe for concurrent use.
type Retrier struct {
	maxAttempts int
	backoff     Backoff
	retryIf     func(error) bool
	onRetry     func(attempt int, err error, delay time.Duration)
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(r *Retrier) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff replaces the delay policy.
func WithBackoff(b Backoff) Option {
	return func(r *Retrier) { r.backoff = b }
}

// WithRetryIf selects the errors worth retrying. By default nothing is retried.
func WithRetryIf(fn func(error) bool) Option {
	return func(r *Retrier) { r.retryIf = fn }
}

// WithOnRetry is called before each wait.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(r *Retrier) { r.onRetry = fn }
}

// New creates a Retrier with three attempts and 100ms doubling backoff.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		maxAttempts: 3,
		backoff: Backoff{
			Initial:    100 * time.Millisecond,
			Max:        5 * time.Second,
			Multiplier: 2,
			Jitter:     0.1,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DatabaseRetrier is tuned for short transactions.
// Extra options are applied after the defaults.
func DatabaseRetrier(opts ...Option) *Retrier {
	return New(append([]Option{
		WithMaxAttempts(5),
		WithBackoff(Backoff{
			Initial:    20 * time.Millisecond,
			Max:        time.Second,
			Multiplier: 2,
			Jitter:     0.2,
		}),
	}, opts...)...)
}

// Do runs op until it succeeds, returns a non-retryable error, attempts run
// out or ctx is done. The last operation error is returned.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt >= r.maxAttempts || r.retryIf == nil || !r.retryIf(err) {
			return err
		}

		delay := r.backoff.Delay(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
}

// Do runs op with a one-off Retrier.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, op)
}
