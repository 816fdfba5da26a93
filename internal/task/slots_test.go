package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotQueue_GrantsInOrder(t *testing.T) {
	t.Parallel()

	q := newSlotQueue(1)
	first, second, third := uuid.New(), uuid.New(), uuid.New()

	w, _ := q.enqueue(first)
	require.Nil(t, w, "free slot is taken immediately")

	w2, n := q.enqueue(second)
	require.NotNil(t, w2)
	assert.Equal(t, 1, n)
	w3, n := q.enqueue(third)
	require.NotNil(t, w3)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uuid.UUID{second, third}, q.waiting())
	assert.True(t, q.isWaiting(third))

	q.release()
	require.NoError(t, q.wait(context.Background(), w2))
	assert.Equal(t, []uuid.UUID{third}, q.waiting())

	select {
	case <-w3.ready:
		t.Fatal("third waiter granted before a second release")
	default:
	}

	q.release()
	require.NoError(t, q.wait(context.Background(), w3))
	assert.Empty(t, q.waiting())

	q.release()
	w4, _ := q.enqueue(uuid.New())
	assert.Nil(t, w4, "slot returned to the free pool once nobody waits")
}

func TestSlotQueue_NewcomerDoesNotJumpQueue(t *testing.T) {
	t.Parallel()

	q := newSlotQueue(1)
	q.enqueue(uuid.New())
	waiter, _ := q.enqueue(uuid.New())

	q.release()
	late, _ := q.enqueue(uuid.New())
	require.NotNil(t, late, "slot already belongs to the head waiter")
	require.NoError(t, q.wait(context.Background(), waiter))
}

func TestSlotQueue_CancelledWaitReturnsCause(t *testing.T) {
	t.Parallel()

	q := newSlotQueue(1)
	q.enqueue(uuid.New())
	id := uuid.New()
	w, _ := q.enqueue(id)

	ctx, cancel := context.WithCancelCause(context.Background())
	cause := errors.New("gave up")
	cancel(cause)

	err := q.wait(ctx, w)
	assert.ErrorIs(t, err, cause)
	assert.False(t, q.isWaiting(id))

	q.release()
	next, _ := q.enqueue(uuid.New())
	assert.Nil(t, next, "abandoned waiter does not swallow the slot")
}

func TestSlotQueue_GrantRacingCancelHandsSlotBack(t *testing.T) {
	t.Parallel()

	q := newSlotQueue(1)
	q.enqueue(uuid.New())
	w, _ := q.enqueue(uuid.New())

	q.release()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// either branch of the select may win; the slot must end up usable
	if err := q.wait(ctx, w); err == nil {
		q.release()
	} else {
		assert.ErrorIs(t, err, context.Canceled)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if next, _ := q.enqueue(uuid.New()); next != nil {
			_ = q.wait(context.Background(), next)
		}
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("slot was lost")
	}
}
