package resilience

import (
	"context"
	"time"
)

// Pool bounds concurrent calls into the OCR engine and abandons calls
// that exceed a per-call deadline. An abandoned call keeps holding its
// worker slot until its function returns, so a hung backend degrades
// throughput instead of pinning requests.
type Pool struct {
	sem     chan struct{}
	timeout time.Duration
}

// NewPool creates a pool with the given worker count and per-call
// timeout. A non-positive worker count falls back to 2 workers; a
// non-positive timeout disables the deadline.
func NewPool(workers int, timeout time.Duration) *Pool {
	if workers < 1 {
		workers = 2
	}
	return &Pool{
		sem:     make(chan struct{}, workers),
		timeout: timeout,
	}
}

// Run executes fn on a worker slot, waiting for a free slot first. If fn
// does not return within the pool's timeout, Run abandons it and returns
// a TimeoutError; fn's context is cancelled so a cooperative backend can
// stop early. Results fn produced after abandonment must be discarded by
// the caller.
func (p *Pool) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	callCtx := ctx
	cancel := context.CancelFunc(func() {})
	if p.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
	}

	done := make(chan error, 1)
	go func() {
		defer func() { <-p.sem }()
		defer cancel()
		done <- fn(callCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TimeoutError{Op: op, Timeout: p.timeout}
	}
}
