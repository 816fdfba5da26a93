package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sellerdesk/taskd/internal/service"
	"github.com/sellerdesk/taskd/internal/task"
)

var _ service.TaskService = (*MockTaskService)(nil)

// MockTaskService implements service.TaskService for testing
type MockTaskService struct {
	// Custom behavior functions
	SubmitFn         func(ctx context.Context, req service.SubmitRequest) (task.Task, error)
	GetFn            func(id uuid.UUID) (task.Task, error)
	ListFn           func(filter service.ListFilter) ([]task.Task, error)
	StatsFn          func() task.Stats
	TypesFn          func() []string
	CancelFn         func(id uuid.UUID) error
	RemoveFn         func(id uuid.UUID) error
	ClearCompletedFn func() int
	SubscribeFn      func(l task.Listener) func()
	OnTaskCompleteFn func(cb task.CompletionCallback) func()
	ShutdownFn       func(ctx context.Context) error

	// Default return values
	Task         task.Task
	Tasks        []task.Task
	DefaultError error

	mu        sync.Mutex
	submitted []service.SubmitRequest
}

// Submit implements the TaskService.Submit method
func (m *MockTaskService) Submit(ctx context.Context, req service.SubmitRequest) (task.Task, error) {
	m.mu.Lock()
	m.submitted = append(m.submitted, req)
	m.mu.Unlock()

	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, req)
	}
	return m.Task, m.DefaultError
}

// Submitted returns every request passed to Submit, in call order.
func (m *MockTaskService) Submitted() []service.SubmitRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.SubmitRequest(nil), m.submitted...)
}

// Get implements the TaskService.Get method
func (m *MockTaskService) Get(id uuid.UUID) (task.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(id)
	}
	return m.Task, m.DefaultError
}

// List implements the TaskService.List method
func (m *MockTaskService) List(filter service.ListFilter) ([]task.Task, error) {
	if m.ListFn != nil {
		return m.ListFn(filter)
	}
	return m.Tasks, m.DefaultError
}

// Stats implements the TaskService.Stats method
func (m *MockTaskService) Stats() task.Stats {
	if m.StatsFn != nil {
		return m.StatsFn()
	}
	return task.Stats{}
}

// Types implements the TaskService.Types method
func (m *MockTaskService) Types() []string {
	if m.TypesFn != nil {
		return m.TypesFn()
	}
	return nil
}

// Cancel implements the TaskService.Cancel method
func (m *MockTaskService) Cancel(id uuid.UUID) error {
	if m.CancelFn != nil {
		return m.CancelFn(id)
	}
	return m.DefaultError
}

// Remove implements the TaskService.Remove method
func (m *MockTaskService) Remove(id uuid.UUID) error {
	if m.RemoveFn != nil {
		return m.RemoveFn(id)
	}
	return m.DefaultError
}

// ClearCompleted implements the TaskService.ClearCompleted method
func (m *MockTaskService) ClearCompleted() int {
	if m.ClearCompletedFn != nil {
		return m.ClearCompletedFn()
	}
	return 0
}

// Subscribe implements the TaskService.Subscribe method. Without SubscribeFn
// the listener receives Tasks once and is never called again.
func (m *MockTaskService) Subscribe(l task.Listener) func() {
	if m.SubscribeFn != nil {
		return m.SubscribeFn(l)
	}
	l(m.Tasks)
	return func() {}
}

// OnTaskComplete implements the TaskService.OnTaskComplete method
func (m *MockTaskService) OnTaskComplete(cb task.CompletionCallback) func() {
	if m.OnTaskCompleteFn != nil {
		return m.OnTaskCompleteFn(cb)
	}
	return func() {}
}

// Shutdown implements the TaskService.Shutdown method
func (m *MockTaskService) Shutdown(ctx context.Context) error {
	if m.ShutdownFn != nil {
		return m.ShutdownFn(ctx)
	}
	return m.DefaultError
}
