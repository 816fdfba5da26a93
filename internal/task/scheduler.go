package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultMaxConcurrent is the number of tasks allowed to run at once when
// the configuration does not say otherwise.
const DefaultMaxConcurrent = 2

// ErrSchedulerClosed is returned by RunTask after Shutdown has been called.
var ErrSchedulerClosed = errors.New("scheduler is shut down")

// Config holds configuration options for the scheduler
type Config struct {
	// MaxConcurrent bounds how many tasks may hold StatusRunning at once.
	// If zero or negative, defaults to DefaultMaxConcurrent.
	MaxConcurrent int
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: DefaultMaxConcurrent,
	}
}

// claim tracks a RunTask call from the moment it is accepted until it returns.
type claim struct {
	cancel context.CancelCauseFunc
}

// Scheduler runs caller-supplied work for registered tasks while bounding
// how many of them run concurrently. Excess work waits in FIFO order for a
// free slot. The embedded Registry exposes task creation, updates, and
// subscriptions.
type Scheduler struct {
	*Registry

	completions completionBus

	slots         *slotQueue
	maxConcurrent int
	running       atomic.Int64

	mu     sync.Mutex
	claims map[uuid.UUID]*claim
	closed bool

	// inflight tracks RunTask calls for Shutdown
	inflight sync.WaitGroup

	logger *slog.Logger
}

// NewScheduler creates a scheduler with its own empty registry.
func NewScheduler(config Config, logger *slog.Logger) *Scheduler {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
		logger.Warn("invalid max concurrency specified, using default",
			"specified_count", config.MaxConcurrent,
			"default_count", DefaultMaxConcurrent)
	}

	return &Scheduler{
		Registry:      NewRegistry(logger),
		slots:         newSlotQueue(maxConcurrent),
		maxConcurrent: maxConcurrent,
		claims:        make(map[uuid.UUID]*claim),
		logger:        logger.With("component", "task_scheduler"),
	}
}

// MaxConcurrent returns the number of concurrency slots.
func (s *Scheduler) MaxConcurrent() int {
	return s.maxConcurrent
}

// RunningCount returns how many executors currently hold a slot.
func (s *Scheduler) RunningCount() int {
	return int(s.running.Load())
}

// Waiting returns the ids of tasks waiting for a slot, in enqueue order.
func (s *Scheduler) Waiting() []uuid.UUID {
	return s.slots.waiting()
}

// OnTaskComplete registers a callback fired once for every task that
// reaches StatusCompleted or StatusFailed. Cancelled tasks do not trigger it.
func (s *Scheduler) OnTaskComplete(cb CompletionCallback) (unsubscribe func()) {
	return s.completions.subscribe(cb)
}

// CancelTask marks a pending or running task as cancelled. A task still
// waiting for a slot is dropped from the queue and will never run; a running
// task only sees its context cancelled and may keep going. It returns false
// when the task is missing or already finished.
func (s *Scheduler) CancelTask(id uuid.UUID) bool {
	before, ok := s.GetTask(id)
	if !ok {
		return false
	}
	if _, ok := s.transition(id, StatusCancelled, nil); !ok {
		return false
	}

	s.mu.Lock()
	if c, found := s.claims[id]; found {
		c.cancel(ErrTaskCancelled)
	}
	s.mu.Unlock()

	s.logger.Info("task cancelled",
		"task_id", id,
		"task_type", before.Type,
		"previous_status", before.Status)
	return true
}

// RemoveTask deletes the task. A RunTask call still waiting for a slot for
// this task returns ErrTaskNotFound. An executor that is already running is
// left alone.
func (s *Scheduler) RemoveTask(id uuid.UUID) {
	s.Registry.RemoveTask(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, found := s.claims[id]; found && s.slots.isWaiting(id) {
		c.cancel(ErrTaskNotFound)
	}
}

// Shutdown stops accepting new RunTask calls, cancels the contexts of every
// waiting and running task, and waits for outstanding RunTask calls to
// return or for ctx to end.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, c := range s.claims {
			c.cancel(ErrSchedulerClosed)
		}
		s.logger.Info("scheduler shutting down",
			"active_count", len(s.claims),
			"queue_len", len(s.slots.waiting()))
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// acquire obtains a concurrency slot, queueing behind earlier waiters when
// none is free. It fails with the cancellation cause of ctx.
func (s *Scheduler) acquire(ctx context.Context, id uuid.UUID, logger *slog.Logger) error {
	w, queueLen := s.slots.enqueue(id)
	if w == nil {
		return nil
	}

	logger.Info("task queued, waiting for a free slot",
		"queue_len", queueLen,
		"max_concurrent", s.maxConcurrent)

	return s.slots.wait(ctx, w)
}
