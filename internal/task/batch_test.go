package task

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementCompleted_ProgressLaw(t *testing.T) {
	t.Parallel()

	for _, total := range []int{1, 3, 7, 100} {
		r := NewRegistry(setupTestLogger())
		id := r.CreateTask("import", "", nil, Int(total))

		for k := 1; k <= total+3; k++ {
			r.IncrementCompleted(id, "")

			task, ok := r.GetTask(id)
			require.True(t, ok)
			assert.Equal(t, 100*min(k, total)/total, task.Progress, "total=%d k=%d", total, k)
			assert.Equal(t, k, task.CompletedItems)
		}
	}
}

func TestBatch_ImportScenario(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())
	id := r.CreateTask("import", "Importing", nil, Int(100))

	for i := 0; i < 37; i++ {
		r.IncrementCompleted(id, "")
	}
	task, _ := r.GetTask(id)
	assert.Equal(t, 37, task.Progress)

	for i := 0; i < 5; i++ {
		r.IncrementFailed(id)
	}
	task, _ = r.GetTask(id)
	assert.Equal(t, 37, task.Progress, "failures do not move progress")
	assert.Equal(t, 5, task.FailedItems)
	assert.Equal(t, 37, task.CompletedItems)
}

func TestIncrementCompleted_CurrentItem(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())
	id := r.CreateTask("import", "", nil, Int(10))

	r.IncrementCompleted(id, "SKU-001")
	task, _ := r.GetTask(id)
	assert.Equal(t, "SKU-001", task.CurrentItem)

	r.IncrementCompleted(id, "")
	task, _ = r.GetTask(id)
	assert.Equal(t, "SKU-001", task.CurrentItem, "empty label keeps the previous one")
	assert.Equal(t, 20, task.Progress)
}

func TestIncrementCompleted_WithoutTotal(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())
	id := r.CreateTask("ai_generation", "", nil, nil)
	r.UpdateTask(id, Update{Progress: Int(15)})

	r.IncrementCompleted(id, "")

	task, _ := r.GetTask(id)
	assert.Equal(t, 1, task.CompletedItems)
	assert.Equal(t, 15, task.Progress)
}

func TestIncrement_MissingTaskIsNoop(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())
	var notified int
	unsubscribe := r.Subscribe(func([]Task) { notified++ })
	defer unsubscribe()

	assert.NotPanics(t, func() {
		r.IncrementCompleted(uuid.New(), "x")
		r.IncrementFailed(uuid.New())
	})
	assert.Equal(t, 1, notified, "only the replay on subscribe")
}
