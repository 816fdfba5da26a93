package api

import (
	"errors"
	"net/http"

	"github.com/sellerdesk/taskd/internal/executors"
	"github.com/sellerdesk/taskd/internal/service"
	"github.com/sellerdesk/taskd/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, task.ErrTaskNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrTaskNotCancellable),
		errors.Is(err, task.ErrTaskNotPending),
		errors.Is(err, task.ErrTaskAlreadyScheduled):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, executors.ErrUnknownExecutor),
		errors.Is(err, executors.ErrInvalidPayload),
		errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrSchedulerClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, task.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, service.ErrTaskNotCancellable):
		return "Task has already finished"

	case errors.Is(err, task.ErrTaskNotPending),
		errors.Is(err, task.ErrTaskAlreadyScheduled):
		return "Task is already running or finished"

	case errors.Is(err, executors.ErrUnknownExecutor):
		return "Unknown task type"

	case errors.Is(err, executors.ErrInvalidPayload):
		return "Invalid task payload"

	case errors.Is(err, service.ErrInvalidStatus):
		return "Invalid status filter"

	case errors.Is(err, task.ErrSchedulerClosed):
		return "Server is shutting down"

	default:
		return "An unexpected error occurred"
	}
}
