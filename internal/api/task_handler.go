package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sellerdesk/taskd/internal/api/shared"
	"github.com/sellerdesk/taskd/internal/executors"
	"github.com/sellerdesk/taskd/internal/redact"
	"github.com/sellerdesk/taskd/internal/service"
	"github.com/sellerdesk/taskd/internal/task"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With("component", "task_handler"),
	}
}

// ListTasks handles GET /api/tasks. The optional status and type query
// parameters filter the result.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.tasks.List(service.ListFilter{
		Status: task.Status(q.Get("status")),
		Type:   q.Get("type"),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{Tasks: tasksToResponse(tasks)})
}

// GetStats handles GET /api/tasks/stats
func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.tasks.Stats())
}

// GetTask handles GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.tasks.Get(id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(t))
}

// SubmitTask handles POST /api/tasks. The task starts in the background;
// the response is 202 with the task as created.
func (h *TaskHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	var req SubmitTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, shared.DescribeValidationError(err))
		return
	}

	created, err := h.tasks.Submit(r.Context(), service.SubmitRequest{
		Type:       req.Type,
		Message:    req.Message,
		Payload:    req.Payload,
		TotalItems: req.TotalItems,
	})
	if err != nil {
		// schema violations are safe and useful to echo back
		if errors.Is(err, executors.ErrInvalidPayload) {
			shared.RespondWithError(w, r, http.StatusBadRequest, redact.Error(err))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	h.logger.Info("task submitted",
		"task_id", created.ID,
		"task_type", created.Type,
		"trace_id", shared.GetTraceID(r.Context()))

	shared.RespondWithJSON(w, r, http.StatusAccepted, taskToResponse(created))
}

// CancelTask handles POST /api/tasks/{id}/cancel
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.Cancel(id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	t, err := h.tasks.Get(id)
	if err != nil {
		// removed right after being cancelled
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(t))
}

// DeleteTask handles DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.Remove(id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearCompleted handles DELETE /api/tasks/completed
func (h *TaskHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	removed := h.tasks.ClearCompleted()
	shared.RespondWithJSON(w, r, http.StatusOK, ClearCompletedResponse{Removed: removed})
}

// ListExecutors handles GET /api/executors
func (h *TaskHandler) ListExecutors(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, ExecutorListResponse{Types: h.tasks.Types()})
}
