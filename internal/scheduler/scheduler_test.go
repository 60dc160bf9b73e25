package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestScheduler_RunsJobPeriodically(t *testing.T) {
	var count atomic.Int32

	s := New(zap.NewNop())
	s.AddJob(Job{
		Name:     "tick",
		Interval: 20 * time.Millisecond,
		Run: func(context.Context) error {
			count.Add(1)
			return nil
		},
	})

	s.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, count.Load(), int32(2))
}

func TestScheduler_SkipsTickWhileJobRunning(t *testing.T) {
	var started atomic.Int32
	block := make(chan struct{})

	s := New(zap.NewNop())
	s.AddJob(Job{
		Name:     "slow",
		Interval: 20 * time.Millisecond,
		Run: func(context.Context) error {
			started.Add(1)
			<-block
			return nil
		},
	})

	s.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), started.Load())

	close(block)
	s.Stop()
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	var count atomic.Int32

	s := New(zap.NewNop())
	s.AddJob(Job{
		Name:     "panicky",
		Interval: 20 * time.Millisecond,
		Run: func(context.Context) error {
			count.Add(1)
			panic("boom")
		},
	})

	s.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, count.Load(), int32(2), "panics must not kill the job loop")
}

func TestScheduler_StopCancelsJobContext(t *testing.T) {
	cancelled := make(chan struct{})

	s := New(zap.NewNop())
	s.AddJob(Job{
		Name:     "waiter",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			close(cancelled)
			return ctx.Err()
		},
	})

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("job context was not cancelled on Stop")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestScheduler_IgnoresNonPositiveInterval(t *testing.T) {
	s := New(zap.NewNop())
	s.AddJob(Job{Name: "never", Interval: 0, Run: func(context.Context) error {
		t.Error("job with zero interval must not run")
		return nil
	}})

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Stop()
}
