// Package scheduler runs background tasks for the runtime: bounded
// fire-and-forget work and one-shot delayed callbacks (stop timeouts,
// delayed self-sends). Task panics are contained and logged.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type Options struct {
	Context context.Context
	Logger  *slog.Logger
	// MaxConcurrentTasks caps the number of tasks running at once.
	// If 0 or negative, concurrency is unlimited.
	MaxConcurrentTasks int
}

type Scheduler struct {
	ctx      context.Context
	log      *slog.Logger
	inflight atomic.Int32
	sem      chan struct{}
	max      int

	wg sync.WaitGroup
}

// New creates a scheduler. Zero-value options get sensible defaults.
func New(opts Options) *Scheduler {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	var sem chan struct{}
	if opts.MaxConcurrentTasks > 0 {
		sem = make(chan struct{}, opts.MaxConcurrentTasks)
	}
	return &Scheduler{
		ctx: opts.Context,
		log: opts.Logger,
		sem: sem,
		max: opts.MaxConcurrentTasks,
	}
}

// Schedule runs f asynchronously. If the scheduler is bounded, f waits for a
// free slot first. Scheduling after the context is cancelled is a no-op.
func (s *Scheduler) Schedule(f func()) {
	select {
	case <-s.ctx.Done():
		return
	default:
	}

	s.wg.Add(1)

	if s.max <= 0 {
		go func() {
			defer s.wg.Done()
			s.inflight.Add(1)
			defer s.inflight.Add(-1)
			s.runTask(f)
		}()
		return
	}

	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			return
		case s.sem <- struct{}{}:
		}

		s.inflight.Add(1)
		defer func() {
			<-s.sem
			s.inflight.Add(-1)
		}()

		s.runTask(f)
	}()
}

func (s *Scheduler) runTask(f func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled task panicked", slog.Any("recovered", r))
		}
	}()
	f()
}

// Inflight returns the number of currently running tasks.
func (s *Scheduler) Inflight() int { return int(s.inflight.Load()) }

// Wait blocks until all in-flight tasks complete.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Task is a handle to a pending one-shot callback.
type Task struct {
	timer *time.Timer
}

// Cancel stops the callback if it has not fired yet. Reports whether the
// call prevented the callback from running.
func (t *Task) Cancel() bool {
	return t.timer.Stop()
}

// ScheduleOnce runs f after delay, unless cancelled first. The callback runs
// with panic containment like any scheduled task.
func (s *Scheduler) ScheduleOnce(delay time.Duration, f func()) *Task {
	t := time.AfterFunc(delay, func() {
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		s.runTask(f)
	})
	return &Task{timer: t}
}
