package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"storycoin-backend/internal/domain"
)

// Retrier re-runs a whole unit of work when the storage layer reports a
// transient conflict. Terminal errors (validation, insufficient balance,
// not found) abort immediately. Callers must keep non-deferrable side
// effects out of the retried function; anything user-visible runs after
// the unit commits.
type Retrier struct {
	maxRetries uint64
	base       time.Duration
	cap        time.Duration
}

func NewRetrier(maxRetries int, base, cap time.Duration) *Retrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if cap <= 0 {
		cap = time.Second
	}
	return &Retrier{maxRetries: uint64(maxRetries), base: base, cap: cap}
}

// Run executes op with bounded exponential backoff between attempts. The
// budget is one initial attempt plus maxRetries retries; if every attempt
// conflicts, the last transient error is returned for the caller to map to
// a "please retry" response.
func (r *Retrier) Run(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.base
	bo.MaxInterval = r.cap
	bo.MaxElapsedTime = 0

	wrapped := func() error {
		err := op()
		if err == nil || domain.IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(bo, r.maxRetries), ctx))
}
