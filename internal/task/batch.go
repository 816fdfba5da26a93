package task

import "github.com/google/uuid"

// IncrementCompleted records one more finished item on a batch task and
// recomputes its progress. A non-empty currentItem replaces the display
// label of the item being processed. Missing ids are ignored.
func (r *Registry) IncrementCompleted(id uuid.UUID, currentItem string) {
	r.mutate(id, func(t *Task) bool {
		t.CompletedItems++
		if currentItem != "" {
			t.CurrentItem = currentItem
		}
		t.recomputeProgress()
		return true
	})
}

// IncrementFailed records one more failed item. Progress tracks completed
// items only, so it is left unchanged. Missing ids are ignored.
func (r *Registry) IncrementFailed(id uuid.UUID) {
	r.mutate(id, func(t *Task) bool {
		t.FailedItems++
		return true
	})
}
