package task

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a task
type Status string

// Possible task status values
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions can occur from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal edge.
// Valid transitions: pending -> running -> completed/failed,
// pending -> cancelled, running -> cancelled.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusCancelled
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed || next == StatusCancelled
	}
	return false
}

// Task is a snapshot of a unit of trackable background work.
// Values returned by the registry are copies; mutating them has no effect
// on the stored record.
type Task struct {
	// ID is generated at creation and never supplied by callers
	ID uuid.UUID `json:"id"`

	// Type is a free-form category such as "import" or "marketplace_sync"
	Type string `json:"type"`

	Status Status `json:"status"`

	// Progress is a percentage in [0,100]
	Progress int `json:"progress"`

	// Message is a human-readable display string
	Message string `json:"message"`

	// Payload is opaque to the scheduler
	Payload json.RawMessage `json:"payload,omitempty"`

	// Error describes why the task failed
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Batch fields. When TotalItems is set, Progress is derived from
	// CompletedItems rather than reported directly.
	TotalItems     *int   `json:"total_items,omitempty"`
	CompletedItems int    `json:"completed_items"`
	FailedItems    int    `json:"failed_items"`
	CurrentItem    string `json:"current_item,omitempty"`

	// seq orders tasks created within the same clock tick
	seq uint64
}

// IsBatch reports whether progress is derived from item counters.
func (t Task) IsBatch() bool {
	return t.TotalItems != nil
}

// clone returns a deep copy safe to hand outside the registry lock.
func (t *Task) clone() Task {
	c := *t
	if t.Payload != nil {
		c.Payload = append(json.RawMessage(nil), t.Payload...)
	}
	if t.TotalItems != nil {
		total := *t.TotalItems
		c.TotalItems = &total
	}
	return c
}

// recomputeProgress derives progress from the batch counters.
// Tasks without a positive TotalItems keep their reported progress.
func (t *Task) recomputeProgress() {
	if t.TotalItems == nil || *t.TotalItems <= 0 {
		return
	}
	total := *t.TotalItems
	done := t.CompletedItems
	if done > total {
		done = total
	}
	if done < 0 {
		done = 0
	}
	t.Progress = 100 * done / total
}

// Update carries the fields to merge into a task. Nil fields are left
// untouched. Status is deliberately absent: it only changes through the
// scheduler so that every transition stays on a legal edge.
type Update struct {
	Progress       *int
	Message        *string
	Payload        json.RawMessage
	Error          *string
	TotalItems     *int
	CompletedItems *int
	FailedItems    *int
	CurrentItem    *string
}

// apply merges u into t.
func (u Update) apply(t *Task) {
	if u.Progress != nil {
		t.Progress = clampProgress(*u.Progress)
	}
	if u.Message != nil {
		t.Message = *u.Message
	}
	if u.Payload != nil {
		t.Payload = append(json.RawMessage(nil), u.Payload...)
	}
	if u.Error != nil {
		t.Error = *u.Error
	}
	if u.TotalItems != nil {
		total := *u.TotalItems
		t.TotalItems = &total
	}
	if u.CompletedItems != nil {
		t.CompletedItems = *u.CompletedItems
	}
	if u.FailedItems != nil {
		t.FailedItems = *u.FailedItems
	}
	if u.CurrentItem != nil {
		t.CurrentItem = *u.CurrentItem
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Stats holds per-status task counts.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Int returns a pointer to v, for building Update values.
func Int(v int) *int {
	return &v
}

// String returns a pointer to v, for building Update values.
func String(v string) *string {
	return &v
}
