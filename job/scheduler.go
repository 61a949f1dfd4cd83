// Package job runs the periodic background work: reclaiming stalled
// queue deliveries and the nightly index rebuild.
package job

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a periodic unit of background work. RunOnStart jobs fire once
// immediately; the rest wait for their first tick. The index rebuild
// must not run at every boot, so it waits.
type Job struct {
	Name       string
	Interval   time.Duration
	Timeout    time.Duration
	RunOnStart bool
	Fn         func(ctx context.Context) error
}

// Scheduler drives registered jobs on their intervals until the start
// context is cancelled.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger}
}

func (s *Scheduler) Add(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start launches one goroutine per job. Jobs stop when ctx is
// cancelled; Shutdown waits for in-flight runs to finish.
func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.run(ctx, j)
	}
}

func (s *Scheduler) run(ctx context.Context, j Job) {
	defer s.wg.Done()

	if j.RunOnStart {
		s.execute(ctx, j)
	}

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("job stopping", "job", j.Name)
			return
		case <-ticker.C:
			s.execute(ctx, j)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, j Job) {
	if ctx.Err() != nil {
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, j.Timeout)
	defer cancel()

	start := time.Now()
	if err := j.Fn(jobCtx); err != nil {
		s.logger.Error("job failed", "job", j.Name, "elapsed", time.Since(start), "error", err)
		return
	}
	s.logger.Debug("job finished", "job", j.Name, "elapsed", time.Since(start))
}

// Shutdown blocks until every running job returns.
func (s *Scheduler) Shutdown() {
	s.wg.Wait()
}
