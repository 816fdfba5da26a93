package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sellerdesk/taskd/internal/executors"
	"github.com/sellerdesk/taskd/internal/task"
)

// ExecutorCatalog resolves task types to executors.
// *executors.Registry satisfies it.
type ExecutorCatalog interface {
	// Prepare returns the executor for taskType after validating payload
	Prepare(taskType string, payload json.RawMessage) (executors.Executor, error)

	// Types lists the task types that can be submitted
	Types() []string
}

// SubmitRequest describes a task to create and run.
type SubmitRequest struct {
	Type       string
	Message    string
	Payload    json.RawMessage
	TotalItems *int
}

// ListFilter narrows List results. Zero fields match everything.
type ListFilter struct {
	Status task.Status
	Type   string
}

// TaskService provides task-related operations
type TaskService interface {
	// Submit registers a task and starts it in the background
	Submit(ctx context.Context, req SubmitRequest) (task.Task, error)

	// Get returns a snapshot of a single task
	Get(id uuid.UUID) (task.Task, error)

	// List returns task snapshots, newest first
	List(filter ListFilter) ([]task.Task, error)

	// Stats returns per-status counts
	Stats() task.Stats

	// Types returns the task types that can be submitted
	Types() []string

	// Cancel cancels a pending or running task
	Cancel(id uuid.UUID) error

	// Remove deletes a task from the registry
	Remove(id uuid.UUID) error

	// ClearCompleted removes every finished task and returns how many were removed
	ClearCompleted() int

	// Subscribe registers a task-list listener
	Subscribe(l task.Listener) (unsubscribe func())

	// OnTaskComplete registers a callback for completed and failed tasks
	OnTaskComplete(cb task.CompletionCallback) (unsubscribe func())

	// Shutdown stops accepting work and waits for running tasks to return
	Shutdown(ctx context.Context) error
}

type taskServiceImpl struct {
	scheduler *task.Scheduler
	catalog   ExecutorCatalog
	logger    *slog.Logger

	// mu guards closed and orders runs.Add against Shutdown's runs.Wait
	mu     sync.Mutex
	closed bool

	// runs tracks background RunTask goroutines
	runs sync.WaitGroup
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	scheduler *task.Scheduler,
	catalog ExecutorCatalog,
	logger *slog.Logger,
) (TaskService, error) {
	if scheduler == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "scheduler cannot be nil",
		}
	}
	if catalog == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "catalog cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		scheduler: scheduler,
		catalog:   catalog,
		logger:    logger.With("component", "task_service"),
	}, nil
}

// Submit validates the request against the executor for its type, creates
// the task and starts it. The task keeps running after ctx ends; it is
// stopped by CancelTask or by shutting the scheduler down.
func (s *taskServiceImpl) Submit(ctx context.Context, req SubmitRequest) (task.Task, error) {
	e, err := s.catalog.Prepare(req.Type, req.Payload)
	if err != nil {
		s.logger.Debug("task submission rejected",
			"task_type", req.Type,
			"error", err)
		return task.Task{}, err
	}

	total := req.TotalItems
	if sizer, ok := e.(executors.Sizer); ok && total == nil {
		n, err := sizer.TotalItems(req.Payload)
		if err != nil {
			return task.Task{}, &TaskServiceError{
				Operation: "submit_task",
				Message:   "failed to size batch payload",
				Err:       err,
			}
		}
		total = task.Int(n)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("task submission rejected, shutting down", "task_type", req.Type)
		return task.Task{}, task.ErrSchedulerClosed
	}
	id := s.scheduler.CreateTask(req.Type, req.Message, req.Payload, total)
	s.runs.Add(1)
	s.mu.Unlock()

	created, ok := s.scheduler.GetTask(id)
	if !ok {
		// removed between create and read
		s.runs.Done()
		return task.Task{}, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.runs.Done()
		err := s.scheduler.RunTask(runCtx, id, executors.ExecFunc(e, created, s.scheduler))
		// the scheduler was shut down behind the service's back; a task that
		// never started must not stay pending
		if errors.Is(err, task.ErrSchedulerClosed) && s.scheduler.CancelTask(id) {
			s.logger.Warn("task cancelled, scheduler already shut down",
				"task_id", id,
				"task_type", req.Type)
		}
	}()

	return created, nil
}

func (s *taskServiceImpl) Get(id uuid.UUID) (task.Task, error) {
	t, ok := s.scheduler.GetTask(id)
	if !ok {
		return task.Task{}, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}
	return t, nil
}

func (s *taskServiceImpl) List(filter ListFilter) ([]task.Task, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}

	all := s.scheduler.GetAllTasks()
	if filter.Status == "" && filter.Type == "" {
		return all, nil
	}

	out := make([]task.Task, 0, len(all))
	for _, t := range all {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *taskServiceImpl) Stats() task.Stats {
	return s.scheduler.GetStats()
}

func (s *taskServiceImpl) Types() []string {
	return s.catalog.Types()
}

func (s *taskServiceImpl) Cancel(id uuid.UUID) error {
	if _, ok := s.scheduler.GetTask(id); !ok {
		return fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}
	if !s.scheduler.CancelTask(id) {
		return fmt.Errorf("task %s: %w", id, ErrTaskNotCancellable)
	}
	return nil
}

func (s *taskServiceImpl) Remove(id uuid.UUID) error {
	if _, ok := s.scheduler.GetTask(id); !ok {
		return fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}
	s.scheduler.RemoveTask(id)
	return nil
}

func (s *taskServiceImpl) ClearCompleted() int {
	removed := s.scheduler.ClearCompleted()
	if removed > 0 {
		s.logger.Info("cleared finished tasks", "removed_count", removed)
	}
	return removed
}

func (s *taskServiceImpl) Subscribe(l task.Listener) func() {
	return s.scheduler.Subscribe(l)
}

func (s *taskServiceImpl) OnTaskComplete(cb task.CompletionCallback) func() {
	return s.scheduler.OnTaskComplete(cb)
}

// Shutdown rejects further submissions, stops the scheduler and waits for
// background runs to return.
func (s *taskServiceImpl) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if err := s.scheduler.Shutdown(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validStatus(st task.Status) bool {
	switch st {
	case task.StatusPending, task.StatusRunning, task.StatusCompleted,
		task.StatusFailed, task.StatusCancelled:
		return true
	}
	return false
}
