package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named periodic task. Run errors are logged, never fatal.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives jobs on independent tickers. A tick that fires while the
// previous invocation of the same job is still running is skipped, so slow
// jobs never stack.
type Scheduler struct {
	jobs   []Job
	logger *zap.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

func (s *Scheduler) AddJob(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches one goroutine per job and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for i := range s.jobs {
		job := s.jobs[i]
		if job.Interval <= 0 {
			s.logger.Warn("Skipping job with non-positive interval", zap.String("job", job.Name))
			continue
		}
		s.wg.Add(1)
		go s.runLoop(ctx, job)
	}
}

// Stop cancels all job contexts and waits for in-flight invocations.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	defer s.wg.Done()

	s.logger.Info("Scheduled job",
		zap.String("job", job.Name), zap.Duration("interval", job.Interval))

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	var running sync.Mutex
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !running.TryLock() {
				s.logger.Warn("Previous invocation still running, skipping tick",
					zap.String("job", job.Name))
				continue
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer running.Unlock()
				s.invoke(ctx, job)
			}()
		}
	}
}

func (s *Scheduler) invoke(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Job panicked",
				zap.String("job", job.Name), zap.Any("panic", r))
		}
	}()

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("Job failed",
			zap.String("job", job.Name),
			zap.Duration("took", time.Since(started)),
			zap.Error(err))
		return
	}
	s.logger.Debug("Job finished",
		zap.String("job", job.Name),
		zap.Duration("took", time.Since(started)))
}
