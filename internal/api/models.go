package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sellerdesk/taskd/internal/redact"
	"github.com/sellerdesk/taskd/internal/task"
)

// SubmitTaskRequest is the body of POST /api/tasks.
type SubmitTaskRequest struct {
	Type       string          `json:"type"        validate:"required,max=64"`
	Message    string          `json:"message"     validate:"max=1024"`
	Payload    json.RawMessage `json:"payload"`
	TotalItems *int            `json:"total_items" validate:"omitempty,gte=1"`
}

// TaskResponse is the client view of a task.
type TaskResponse struct {
	ID             uuid.UUID       `json:"id"`
	Type           string          `json:"type"`
	Status         task.Status     `json:"status"`
	Progress       int             `json:"progress"`
	Message        string          `json:"message,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	TotalItems     *int            `json:"total_items,omitempty"`
	CompletedItems int             `json:"completed_items"`
	FailedItems    int             `json:"failed_items"`
	CurrentItem    string          `json:"current_item,omitempty"`
}

// TaskListResponse is the body of GET /api/tasks.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// ClearCompletedResponse reports how many tasks DELETE /api/tasks/completed removed.
type ClearCompletedResponse struct {
	Removed int `json:"removed"`
}

// ExecutorListResponse lists the task types that can be submitted.
type ExecutorListResponse struct {
	Types []string `json:"types"`
}

// StreamMessage is one frame sent over the task stream.
type StreamMessage struct {
	// Event is "snapshot" for a full task list or "task_finished" for a
	// completed or failed task
	Event string         `json:"event"`
	Tasks []TaskResponse `json:"tasks,omitempty"`
	Task  *TaskResponse  `json:"task,omitempty"`
}

// Stream event names
const (
	EventSnapshot     = "snapshot"
	EventTaskFinished = "task_finished"
)

// taskToResponse converts a task snapshot. Error text comes from executors
// and is redacted before it leaves the process.
func taskToResponse(t task.Task) TaskResponse {
	return TaskResponse{
		ID:             t.ID,
		Type:           t.Type,
		Status:         t.Status,
		Progress:       t.Progress,
		Message:        t.Message,
		Payload:        t.Payload,
		Error:          redact.String(t.Error),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		TotalItems:     t.TotalItems,
		CompletedItems: t.CompletedItems,
		FailedItems:    t.FailedItems,
		CurrentItem:    t.CurrentItem,
	}
}

func tasksToResponse(tasks []task.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = taskToResponse(t)
	}
	return out
}
