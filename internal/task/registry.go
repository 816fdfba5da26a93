package task

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is the canonical in-memory store of task records. All reads and
// writes of task state go through it, and every change is published to the
// task-list listeners.
type Registry struct {
	mu      sync.RWMutex
	tasks   map[uuid.UUID]*Task
	seq     uint64
	version uint64

	bus    snapshotBus
	logger *slog.Logger

	// now and newID are replaceable in tests
	now   func() time.Time
	newID func() uuid.UUID
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tasks:  make(map[uuid.UUID]*Task),
		logger: logger.With("component", "task_registry"),
		now:    time.Now,
		newID:  uuid.New,
	}
}

// CreateTask stores a new pending task and returns its generated id.
// totalItems may be nil for tasks that report progress directly.
func (r *Registry) CreateTask(taskType, message string, payload json.RawMessage, totalItems *int) uuid.UUID {
	r.mu.Lock()
	id := r.newID()
	for r.tasks[id] != nil {
		id = r.newID()
	}

	now := r.now()
	r.seq++
	t := &Task{
		ID:        id,
		Type:      taskType,
		Status:    StatusPending,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
		seq:       r.seq,
	}
	if payload != nil {
		t.Payload = append(json.RawMessage(nil), payload...)
	}
	if totalItems != nil {
		total := *totalItems
		t.TotalItems = &total
	}
	r.tasks[id] = t
	version, snapshot := r.commitLocked()
	r.mu.Unlock()

	r.bus.publish(version, snapshot)

	r.logger.Debug("task created",
		"task_id", id,
		"task_type", taskType,
		"batch", totalItems != nil)
	return id
}

// GetTask returns a copy of the task with the given id.
func (r *Registry) GetTask(id uuid.UUID) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return t.clone(), true
}

// GetAllTasks returns a snapshot of every task, newest first.
func (r *Registry) GetAllTasks() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// UpdateTask merges the non-nil fields of u into the task and bumps its
// UpdatedAt. Progress is recomputed from the item counters for batch tasks.
// Updating a task that no longer exists is a no-op.
func (r *Registry) UpdateTask(id uuid.UUID, u Update) {
	r.mutate(id, func(t *Task) bool {
		u.apply(t)
		t.recomputeProgress()
		return true
	})
}

// RemoveTask deletes the task. Removing a missing id is a no-op.
func (r *Registry) RemoveTask(id uuid.UUID) {
	r.mu.Lock()
	if _, ok := r.tasks[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.tasks, id)
	version, snapshot := r.commitLocked()
	r.mu.Unlock()

	r.bus.publish(version, snapshot)
	r.logger.Debug("task removed", "task_id", id)
}

// ClearCompleted deletes every task in a terminal status and returns how
// many were removed. Listeners are notified once, and only if something was
// removed.
func (r *Registry) ClearCompleted() int {
	r.mu.Lock()
	removed := 0
	for id, t := range r.tasks {
		if t.Status.IsTerminal() {
			delete(r.tasks, id)
			removed++
		}
	}
	if removed == 0 {
		r.mu.Unlock()
		return 0
	}
	version, snapshot := r.commitLocked()
	r.mu.Unlock()

	r.bus.publish(version, snapshot)
	r.logger.Debug("cleared finished tasks", "removed_count", removed)
	return removed
}

// GetStats counts tasks per status.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Total: len(r.tasks)}
	for _, t := range r.tasks {
		switch t.Status {
		case StatusPending:
			stats.Pending++
		case StatusRunning:
			stats.Running++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// Subscribe registers a task-list listener. The listener is called right
// away with the current snapshot and again after every change until the
// returned function is called.
func (r *Registry) Subscribe(l Listener) (unsubscribe func()) {
	return r.bus.subscribe(l, func() (uint64, []Task) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.version, r.snapshotLocked()
	})
}

// mutate applies fn to the stored task under the write lock. If fn returns
// false the task is left untouched and nothing is published. The returned
// task is a copy of the record after fn ran.
func (r *Registry) mutate(id uuid.UUID, fn func(t *Task) bool) (Task, bool) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return Task{}, false
	}
	if !fn(t) {
		current := t.clone()
		r.mu.Unlock()
		return current, false
	}
	t.UpdatedAt = r.now()
	after := t.clone()
	version, snapshot := r.commitLocked()
	r.mu.Unlock()

	r.bus.publish(version, snapshot)
	return after, true
}

// transition moves the task to next if that is a legal edge from its current
// status, applying fn to the record in the same critical section.
func (r *Registry) transition(id uuid.UUID, next Status, fn func(t *Task)) (Task, bool) {
	return r.mutate(id, func(t *Task) bool {
		if !t.Status.CanTransitionTo(next) {
			return false
		}
		t.Status = next
		if fn != nil {
			fn(t)
		}
		return true
	})
}

// commitLocked bumps the registry version and, when someone is listening,
// captures the snapshot to publish. Must be called with the write lock held.
func (r *Registry) commitLocked() (uint64, []Task) {
	r.version++
	if !r.bus.active() {
		return r.version, nil
	}
	return r.version, r.snapshotLocked()
}

// snapshotLocked must be called with at least the read lock held.
func (r *Registry) snapshotLocked() []Task {
	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].seq > out[j].seq
	})
	return out
}
