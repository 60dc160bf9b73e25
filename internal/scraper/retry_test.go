package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	r := Retry{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: zap.NewNop()}

	calls := 0
	err := r.Do(context.Background(), "fetch", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	r := Retry{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: zap.NewNop()}

	permanent := errors.New("permanent")
	calls := 0
	err := r.Do(context.Background(), "fetch", func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	r := Retry{MaxAttempts: 5, BaseDelay: time.Hour, Logger: zap.NewNop()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := r.Do(ctx, "fetch", func() error {
		calls++
		return errors.New("down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "must not wait out the back-off once the context is done")
}

func TestRetry_ZeroAttemptsStillRunsOnce(t *testing.T) {
	r := Retry{Logger: zap.NewNop()}

	calls := 0
	err := r.Do(context.Background(), "fetch", func() error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}
