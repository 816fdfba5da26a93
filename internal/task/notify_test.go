package task

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_ReplaysCurrentSnapshot(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())
	a := r.CreateTask("a", "", nil, nil)
	b := r.CreateTask("b", "", nil, nil)
	c := r.CreateTask("c", "", nil, nil)

	var received [][]Task
	unsubscribe := r.Subscribe(func(tasks []Task) {
		received = append(received, tasks)
	})
	defer unsubscribe()

	require.Len(t, received, 1, "snapshot delivered without any mutation")
	assert.ElementsMatch(t, []uuid.UUID{a, b, c}, taskIDs(received[0]))
}

func TestSubscribe_EmptyRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())

	var got []Task
	calls := 0
	unsubscribe := r.Subscribe(func(tasks []Task) {
		calls++
		got = tasks
	})
	defer unsubscribe()

	assert.Equal(t, 1, calls)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSubscribe_NotifiedOnEveryMutation(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())

	var snapshots [][]Task
	unsubscribe := r.Subscribe(func(tasks []Task) {
		snapshots = append(snapshots, tasks)
	})

	id := r.CreateTask("import", "", nil, Int(2))
	r.UpdateTask(id, Update{Message: String("working")})
	r.IncrementCompleted(id, "row 1")
	r.IncrementFailed(id)
	r.RemoveTask(id)

	require.Len(t, snapshots, 6)
	assert.Len(t, snapshots[1], 1)
	assert.Equal(t, "working", snapshots[2][0].Message)
	assert.Equal(t, 50, snapshots[3][0].Progress)
	assert.Equal(t, 1, snapshots[4][0].FailedItems)
	assert.Empty(t, snapshots[5])

	unsubscribe()
	r.CreateTask("after", "", nil, nil)
	assert.Len(t, snapshots, 6, "no delivery after unsubscribe")
	assert.NotPanics(t, unsubscribe, "unsubscribe is idempotent")
}

func TestSubscribe_IndependentListeners(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())

	var first, second int
	unsubFirst := r.Subscribe(func([]Task) { first++ })
	unsubSecond := r.Subscribe(func([]Task) { second++ })
	defer unsubSecond()

	r.CreateTask("a", "", nil, nil)
	unsubFirst()
	r.CreateTask("b", "", nil, nil)

	assert.Equal(t, 2, first)
	assert.Equal(t, 3, second)
}

func TestSubscribe_ListenerCanUnsubscribeItself(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())

	calls := 0
	var unsubscribe func()
	unsubscribe = r.Subscribe(func([]Task) {
		calls++
		if calls == 2 {
			unsubscribe()
		}
	})

	r.CreateTask("a", "", nil, nil)
	r.CreateTask("b", "", nil, nil)

	assert.Equal(t, 2, calls)
}

func TestSubscribe_ListenerMayReadRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())

	var stats []Stats
	unsubscribe := r.Subscribe(func([]Task) {
		stats = append(stats, r.GetStats())
	})
	defer unsubscribe()

	r.CreateTask("a", "", nil, nil)

	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats[1].Total)
}

func TestSubscribe_SnapshotsNeverGoBackwards(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())

	var mu sync.Mutex
	lastTotal := -1
	regressions := 0
	unsubscribe := r.Subscribe(func(tasks []Task) {
		mu.Lock()
		defer mu.Unlock()
		if len(tasks) < lastTotal {
			regressions++
		}
		lastTotal = len(tasks)
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				r.CreateTask("a", "", nil, nil)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, regressions, "task count only grows, so snapshots must too")
	assert.Equal(t, 200, lastTotal, "the final snapshot is always delivered")
}

func TestCompletionBus_Unsubscribe(t *testing.T) {
	t.Parallel()

	var bus completionBus
	var got []Task

	unsubscribe := bus.subscribe(func(task Task) { got = append(got, task) })
	bus.fire(Task{Type: "first"})
	unsubscribe()
	unsubscribe()
	bus.fire(Task{Type: "second"})

	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Type)
}
