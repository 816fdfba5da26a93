package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// ProgressFunc reports progress for the running task. An empty message
// leaves the current message unchanged. For batch tasks the reported
// percentage is overridden by the item counters. Reports arriving after the
// task left StatusRunning are dropped.
type ProgressFunc func(progress int, message string)

// ExecFunc is the unit of work run for a task. The context is cancelled when
// the task is cancelled (with cause ErrTaskCancelled), when the caller's
// context ends, or when the scheduler shuts down. Honouring it is up to the
// executor; one that ignores it runs to completion.
type ExecFunc func(ctx context.Context, report ProgressFunc) error

// RunTask runs exec for the pending task id once a concurrency slot is
// free, and blocks until it finishes. If a slot is free the executor starts
// immediately; otherwise the call waits behind earlier waiters.
//
// On success the task is marked completed with progress 100. If exec returns
// an error the task is marked failed, the error text is recorded, and the
// same error is returned. Completion callbacks fire in both cases.
//
// A task cancelled while waiting never runs and RunTask fails with
// ErrTaskCancelled. A task cancelled while running stays cancelled and
// RunTask returns whatever exec returns.
func (s *Scheduler) RunTask(ctx context.Context, id uuid.UUID, exec ExecFunc) error {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	t, err := s.claim(id, cancel)
	if err != nil {
		return err
	}
	defer s.inflight.Done()
	defer s.unclaim(id)

	logger := s.logger.With(
		"task_id", id,
		"task_type", t.Type,
	)

	if err := s.acquire(runCtx, id, logger); err != nil {
		logger.Info("task abandoned before start", "reason", err)
		return fmt.Errorf("task %s: %w", id, err)
	}

	if err := s.admit(id); err != nil {
		s.slots.release()
		logger.Info("task not admitted", "reason", err)
		return fmt.Errorf("task %s: %w", id, err)
	}

	s.running.Add(1)
	logger.Info("task started", "running_count", s.running.Load())

	execErr := invoke(runCtx, exec, s.progressFunc(id))

	final, finished := s.finish(id, execErr)
	s.running.Add(-1)
	s.slots.release()

	s.logFinish(logger, final, finished, execErr)
	if finished {
		s.completions.fire(final)
	}
	return execErr
}

// Run is RunTask for executors that produce a typed result.
func Run[T any](
	ctx context.Context,
	s *Scheduler,
	id uuid.UUID,
	fn func(ctx context.Context, report ProgressFunc) (T, error),
) (T, error) {
	var result T
	err := s.RunTask(ctx, id, func(ctx context.Context, report ProgressFunc) error {
		v, err := fn(ctx, report)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Start runs RunTask in a new goroutine and returns a channel that receives
// its result.
func (s *Scheduler) Start(ctx context.Context, id uuid.UUID, exec ExecFunc) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- s.RunTask(ctx, id, exec)
	}()
	return result
}

// claim registers a RunTask call for id, rejecting calls for tasks that are
// missing, finished, or already being run.
func (s *Scheduler) claim(id uuid.UUID, cancel context.CancelCauseFunc) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Task{}, ErrSchedulerClosed
	}

	t, ok := s.GetTask(id)
	switch {
	case !ok:
		return Task{}, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	case s.claims[id] != nil:
		return Task{}, fmt.Errorf("task %s: %w", id, ErrTaskAlreadyScheduled)
	case t.Status == StatusCancelled:
		return Task{}, fmt.Errorf("task %s: %w", id, ErrTaskCancelled)
	case t.Status != StatusPending:
		return Task{}, fmt.Errorf("task %s is %s: %w", id, t.Status, ErrTaskNotPending)
	}

	s.claims[id] = &claim{cancel: cancel}
	s.inflight.Add(1)
	return t, nil
}

func (s *Scheduler) unclaim(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, id)
}

// admit moves the task from pending to running. It fails if the task was
// cancelled or removed while waiting for its slot.
func (s *Scheduler) admit(id uuid.UUID) error {
	_, ok := s.transition(id, StatusRunning, func(t *Task) {
		t.Progress = 0
		t.Error = ""
	})
	if ok {
		return nil
	}

	current, exists := s.GetTask(id)
	switch {
	case !exists:
		return ErrTaskNotFound
	case current.Status == StatusCancelled:
		return ErrTaskCancelled
	default:
		return ErrTaskNotPending
	}
}

// finish records the executor outcome. It reports false when the task left
// the running state on its own, for example by being cancelled or removed.
func (s *Scheduler) finish(id uuid.UUID, execErr error) (Task, bool) {
	if execErr == nil {
		return s.transition(id, StatusCompleted, func(t *Task) {
			t.Progress = 100
		})
	}

	msg := execErr.Error()
	if msg == "" {
		msg = defaultFailureMessage
	}
	return s.transition(id, StatusFailed, func(t *Task) {
		t.Error = msg
	})
}

func (s *Scheduler) progressFunc(id uuid.UUID) ProgressFunc {
	return func(progress int, message string) {
		u := Update{Progress: &progress}
		if message != "" {
			u.Message = &message
		}
		s.mutate(id, func(t *Task) bool {
			if t.Status != StatusRunning {
				return false
			}
			u.apply(t)
			t.recomputeProgress()
			return true
		})
	}
}

func (s *Scheduler) logFinish(logger *slog.Logger, final Task, finished bool, execErr error) {
	switch {
	case !finished:
		logger.Info("task finished after leaving running state",
			"status", final.Status,
			"error", execErr)
	case execErr != nil:
		logger.Error("task execution failed", "error", execErr)
	default:
		logger.Info("task completed successfully")
	}
}

// invoke runs exec, converting a panic into an error scoped to the task.
func invoke(ctx context.Context, exec ExecFunc, report ProgressFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExecutorPanic, r)
		}
	}()
	return exec(ctx, report)
}
