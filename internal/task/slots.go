package task

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// slotQueue hands out a fixed number of concurrency slots. Callers that
// find no free slot wait in FIFO order; a released slot goes straight to
// the head of the queue.
type slotQueue struct {
	mu      sync.Mutex
	free    int
	waiters []*slotWaiter
}

type slotWaiter struct {
	id    uuid.UUID
	ready chan struct{}
}

func newSlotQueue(size int) *slotQueue {
	return &slotQueue{free: size}
}

// enqueue takes a free slot if one is available and nobody is waiting.
// Otherwise it appends a waiter and returns it along with the queue length.
func (q *slotQueue) enqueue(id uuid.UUID) (*slotWaiter, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.free > 0 && len(q.waiters) == 0 {
		q.free--
		return nil, 0
	}
	w := &slotWaiter{id: id, ready: make(chan struct{})}
	q.waiters = append(q.waiters, w)
	return w, len(q.waiters)
}

// wait blocks until w is granted a slot or ctx ends. On failure it returns
// the cancellation cause of ctx and no slot is held.
func (q *slotQueue) wait(ctx context.Context, w *slotWaiter) error {
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
	}

	q.mu.Lock()
	select {
	case <-w.ready:
		// granted while we were being cancelled; hand the slot back
		q.mu.Unlock()
		q.release()
	default:
		q.waiters = slices.DeleteFunc(q.waiters, func(x *slotWaiter) bool {
			return x == w
		})
		q.mu.Unlock()
	}
	return context.Cause(ctx)
}

// release frees a slot, passing it to the oldest waiter if there is one.
func (q *slotQueue) release() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.waiters) > 0 {
		head := q.waiters[0]
		q.waiters = q.waiters[1:]
		close(head.ready)
		return
	}
	q.free++
}

// waiting returns the ids of queued waiters, oldest first.
func (q *slotQueue) waiting() []uuid.UUID {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]uuid.UUID, len(q.waiters))
	for i, w := range q.waiters {
		ids[i] = w.id
	}
	return ids
}

func (q *slotQueue) isWaiting(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return slices.ContainsFunc(q.waiters, func(w *slotWaiter) bool {
		return w.id == id
	})
}
