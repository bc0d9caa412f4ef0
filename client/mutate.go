package client

import (
	"context"
	"errors"
	"time"

	"adaboards/cache"
	"adaboards/gateway"
)

// Retry budgets, per operation class. Creates are never retried: a
// duplicate entity is worse than a surfaced error.
const (
	readRetries  = 2
	writeRetries = 1
)

// optimisticOp is the one optimistic-mutation primitive. The scope's
// collection is snapshotted, apply runs immediately so the UI shows the
// intended state, then call goes to the network. On failure the
// snapshot is restored exactly before the error propagates; on success
// an optional reconcile merges the server's representation.
type optimisticOp[T cache.Entity] struct {
	store     *cache.Store[T]
	scope     string
	apply     func()
	call      func(ctx context.Context) error
	reconcile func()
}

func runOptimistic[T cache.Entity](ctx context.Context, op optimisticOp[T]) error {
	snapshot := op.store.Get(op.scope)
	op.apply()
	if err := op.call(ctx); err != nil {
		op.store.Set(op.scope, snapshot)
		return err
	}
	if op.reconcile != nil {
		op.reconcile()
	}
	return nil
}

// withRetry runs fn up to 1+retries times, backing off exponentially.
// Only transport failures and 5xx responses are retried; a 4xx means
// the request itself is wrong and will not get better.
func (c *Client) withRetry(ctx context.Context, retries int, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || attempt >= retries || !retryable(err) {
			return err
		}
		if serr := c.sleep(ctx, c.backoff(attempt)); serr != nil {
			return err
		}
	}
}

func retryable(err error) bool {
	var netErr *gateway.NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr *gateway.APIError
	return errors.As(err, &apiErr) && apiErr.Temporary()
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.backoffBase << attempt
	if d > c.backoffCap {
		d = c.backoffCap
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
