package service

import "errors"

// Service errors. Callers check them with errors.Is; the API layer maps them
// to HTTP status codes.
var (
	// ErrTaskNotFound indicates no task exists with the requested id.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotCancellable indicates the task already finished.
	// API layer should map this to HTTP 409 Conflict.
	ErrTaskNotCancellable = errors.New("task is not pending or running")

	// ErrInvalidStatus indicates a list filter named an unknown status.
	ErrInvalidStatus = errors.New("invalid task status")
)

// TaskServiceError wraps unexpected errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "submit_task")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return "task service " + e.Operation + " failed: " + e.Message + ": " + e.Err.Error()
	}
	return "task service " + e.Operation + " failed: " + e.Message
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}
