package executors

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sellerdesk/taskd/internal/task"
)

// ItemTracker records per-item outcomes for batch tasks.
// *task.Scheduler satisfies it through its embedded registry.
type ItemTracker interface {
	IncrementCompleted(id uuid.UUID, currentItem string)
	IncrementFailed(id uuid.UUID)
}

// Job is everything an executor receives for one run.
type Job struct {
	// Task is the task as it was when it was submitted
	Task task.Task

	// Report updates progress and message of the running task
	Report task.ProgressFunc

	// Items is used by batch executors to count processed items
	Items ItemTracker
}

// Executor runs one type of task.
type Executor interface {
	// Schema returns the JSON schema for payloads, or "" to accept anything.
	Schema() string

	// Execute performs the work. It should return promptly once ctx is done.
	Execute(ctx context.Context, job Job) error
}

// Sizer is implemented by executors that know up front how many items a
// payload describes. Tasks for such executors are created as batch tasks.
type Sizer interface {
	TotalItems(payload json.RawMessage) (int, error)
}

// ExecFunc adapts e to the scheduler's execution signature.
func ExecFunc(e Executor, t task.Task, items ItemTracker) task.ExecFunc {
	return func(ctx context.Context, report task.ProgressFunc) error {
		return e.Execute(ctx, Job{
			Task:   t,
			Report: report,
			Items:  items,
		})
	}
}
