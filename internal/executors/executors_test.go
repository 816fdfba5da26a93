package executors

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sellerdesk/taskd/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder captures progress reports and item counts.
type recorder struct {
	mu        sync.Mutex
	progress  []int
	messages  []string
	completed []string
	failed    int
}

func (r *recorder) report(progress int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, progress)
	r.messages = append(r.messages, message)
}

func (r *recorder) IncrementCompleted(_ uuid.UUID, item string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, item)
}

func (r *recorder) IncrementFailed(uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

func newJob(payload string, rec *recorder) Job {
	return Job{
		Task:   task.Task{ID: uuid.New(), Payload: json.RawMessage(payload)},
		Report: rec.report,
		Items:  rec,
	}
}

func TestEchoExecutor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		message string
	}{
		{"with message", `{"message": "hello"}`, "hello"},
		{"empty payload", ``, "echo"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			err := (&EchoExecutor{}).Execute(context.Background(), newJob(tc.payload, rec))

			require.NoError(t, err)
			assert.Equal(t, []int{100}, rec.progress)
			assert.Equal(t, []string{tc.message}, rec.messages)
		})
	}
}

func TestEchoExecutor_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(task.ErrTaskCancelled)

	rec := &recorder{}
	err := (&EchoExecutor{}).Execute(ctx, newJob(`{}`, rec))

	assert.ErrorIs(t, err, task.ErrTaskCancelled)
	assert.Empty(t, rec.progress)
}

func TestSleepExecutor_ReportsProgress(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	e := &SleepExecutor{Tick: 5 * time.Millisecond}
	err := e.Execute(context.Background(), newJob(`{"duration_ms": 40}`, rec))

	require.NoError(t, err)
	require.NotEmpty(t, rec.progress)
	assert.Equal(t, 100, rec.progress[len(rec.progress)-1])
	for i := 1; i < len(rec.progress); i++ {
		assert.GreaterOrEqual(t, rec.progress[i], rec.progress[i-1], "progress never decreases")
	}
}

func TestSleepExecutor_HonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancelCause(context.Background())
	done := make(chan error, 1)
	go func() {
		e := &SleepExecutor{Tick: 5 * time.Millisecond}
		done <- e.Execute(ctx, newJob(`{"duration_ms": 60000}`, &recorder{}))
	}()

	cancel(task.ErrTaskCancelled)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, task.ErrTaskCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("sleep executor ignored cancellation")
	}
}

func TestBatchExecutor(t *testing.T) {
	t.Parallel()

	t.Run("mixed outcomes", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		err := (&BatchExecutor{}).Execute(context.Background(),
			newJob(`{"items": ["a", "b", "c", "d"], "fail": ["c"]}`, rec))

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "d"}, rec.completed)
		assert.Equal(t, 1, rec.failed)
	})

	t.Run("every item failed", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		err := (&BatchExecutor{}).Execute(context.Background(),
			newJob(`{"items": ["a", "b"], "fail": ["a", "b"]}`, rec))

		require.Error(t, err)
		assert.Equal(t, "all 2 items failed", err.Error())
		assert.Equal(t, 2, rec.failed)
	})

	t.Run("stops when cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancelCause(context.Background())
		cancel(task.ErrTaskCancelled)

		rec := &recorder{}
		err := (&BatchExecutor{}).Execute(ctx, newJob(`{"items": ["a", "b"]}`, rec))

		assert.ErrorIs(t, err, task.ErrTaskCancelled)
		assert.Empty(t, rec.completed)
	})
}

func TestBatchExecutor_TotalItems(t *testing.T) {
	t.Parallel()

	n, err := (&BatchExecutor{}).TotalItems(json.RawMessage(`{"items": ["a", "b", "c"]}`))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = (&BatchExecutor{}).TotalItems(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestExecFunc_RunsThroughScheduler(t *testing.T) {
	t.Parallel()

	s := task.NewScheduler(task.DefaultConfig(), setupTestLogger())
	e := &BatchExecutor{}
	payload := json.RawMessage(`{"items": ["a", "b", "c", "d"], "fail": ["d"]}`)
	total, err := e.TotalItems(payload)
	require.NoError(t, err)

	id := s.CreateTask(TypeBatch, "", payload, task.Int(total))
	created, _ := s.GetTask(id)

	require.NoError(t, s.RunTask(context.Background(), id, ExecFunc(e, created, s)))

	got, ok := s.GetTask(id)
	require.True(t, ok)
	assert.Equal(t, task.StatusCompleted, got.Status)
	assert.Equal(t, 3, got.CompletedItems)
	assert.Equal(t, 1, got.FailedItems)
	assert.Equal(t, "c", got.CurrentItem)
	assert.Equal(t, 100, got.Progress)
}
