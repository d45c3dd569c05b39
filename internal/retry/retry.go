package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy describes a bounded retry loop with conditional exponential backoff.
//
// Every failed attempt consumes one of MaxAttempts, but the delay between
// attempts is applied only when BackoffOn reports true for the error; after
// such a wait the delay is multiplied by Multiplier. Errors that BackoffOn
// rejects move straight to the next attempt with no wait and without touching
// the current delay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  int
	BackoffOn   func(error) bool // nil means back off on every error
}

// Do runs fn up to MaxAttempts times, returning the first success or the last
// error. The context is honored while waiting between attempts; cancellation
// surfaces as a wrapped ctx.Err().
func (p Policy) Do(ctx context.Context, logger *slog.Logger, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}

	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
		if attempt == p.MaxAttempts {
			break
		}

		if p.BackoffOn == nil || p.BackoffOn(lastErr) {
			logger.Warn("transient failure, backing off",
				"attempt", attempt,
				"max_attempts", p.MaxAttempts,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= time.Duration(p.Multiplier)
		} else {
			logger.Warn("attempt failed",
				"attempt", attempt,
				"max_attempts", p.MaxAttempts,
				"error", lastErr,
			)
		}
	}

	return lastErr
}
