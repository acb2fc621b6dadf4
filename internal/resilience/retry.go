package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Policy bounds how a failing call is re-attempted.
type Policy struct {
	MaxAttempts int           // total attempts, including the first (0 = 1)
	BaseDelay   time.Duration // wait before the second attempt
	Multiplier  float64       // backoff growth factor per attempt (0 = 2)
	Fallback    func(ctx context.Context) error
}

// Do runs fn up to p.MaxAttempts times with exponential backoff between
// attempts. It respects context cancellation between retries and does not
// retry after a CircuitOpenError: the circuit stays open until its
// recovery timeout elapses, so an immediate retry cannot succeed.
//
// When all attempts fail and p.Fallback is set, the fallback's result is
// returned instead of the last error.
func Do(ctx context.Context, p Policy, logger *slog.Logger, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}

	var lastErr error
	wait := p.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}

		var open *CircuitOpenError
		if errors.As(err, &open) {
			lastErr = err
			break
		}

		if attempt < attempts {
			if logger != nil {
				logger.WarnContext(ctx, "retrying call",
					"op", op,
					"attempt", attempt,
					"max_attempts", attempts,
					"backoff_ms", wait.Milliseconds(),
					"error", err)
			}
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(wait):
			}
			wait = time.Duration(float64(wait) * mult)
		}
	}

	if p.Fallback != nil {
		if logger != nil {
			logger.WarnContext(ctx, "attempts exhausted, running fallback",
				"op", op, "error", lastErr)
		}
		return p.Fallback(ctx)
	}
	return lastErr
}
