package task

import "errors"

// Common errors returned by the Scheduler
var (
	// ErrTaskNotFound is returned when the task id is not in the registry.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskCancelled is returned when a task was cancelled before it could run.
	// It is also the cancellation cause seen by a running executor's context.
	ErrTaskCancelled = errors.New("task was cancelled")

	// ErrTaskAlreadyScheduled is returned when RunTask is called for a task
	// that is already waiting for a slot or running.
	ErrTaskAlreadyScheduled = errors.New("task is already scheduled")

	// ErrTaskNotPending is returned when RunTask is called for a task that
	// has already finished.
	ErrTaskNotPending = errors.New("task is not pending")

	// ErrExecutorPanic wraps a panic recovered from an executor.
	ErrExecutorPanic = errors.New("executor panicked")
)

// defaultFailureMessage is recorded when an executor fails with an empty error text.
const defaultFailureMessage = "task failed"
