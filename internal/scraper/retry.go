package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Retry wraps marketplace fetches with exponential back-off. Attempts stop
// early when the context is done so an adapter timeout behaves as a total
// failure for that source.
type Retry struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *zap.Logger
}

func (r Retry) Do(ctx context.Context, operation string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := r.BaseDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		r.Logger.Warn("fetch failed, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", operation, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}
