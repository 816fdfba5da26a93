package task

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Listener receives the full task list, ordered newest first, after every
// registry change. It is level-triggered: a listener may skip intermediate
// snapshots but always ends up seeing the latest one, and never sees an older
// snapshot after a newer one.
//
// Listeners run synchronously on the goroutine that changed the registry.
// They may read the registry but must not mutate it or subscribe from
// inside the callback.
type Listener func(tasks []Task)

// CompletionCallback receives a copy of a task at the moment it reaches
// StatusCompleted or StatusFailed. It fires exactly once per task and never
// for cancelled tasks.
type CompletionCallback func(task Task)

type listenerEntry struct {
	fn      Listener
	seen    uint64 // guarded by snapshotBus.deliverMu
	removed atomic.Bool
}

// snapshotBus fans task-list snapshots out to listeners.
type snapshotBus struct {
	// deliverMu serializes deliveries so each listener observes versions in order
	deliverMu sync.Mutex

	mu        sync.Mutex
	listeners []*listenerEntry
	count     atomic.Int32
}

// subscribe registers fn and immediately replays the current snapshot to it.
func (b *snapshotBus) subscribe(fn Listener, current func() (uint64, []Task)) func() {
	entry := &listenerEntry{fn: fn}

	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	b.mu.Lock()
	b.listeners = append(b.listeners, entry)
	b.count.Add(1)
	b.mu.Unlock()

	version, tasks := current()
	entry.seen = version
	fn(tasks)

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(entry) })
	}
}

func (b *snapshotBus) remove(entry *listenerEntry) {
	entry.removed.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = slices.DeleteFunc(b.listeners, func(e *listenerEntry) bool {
		return e == entry
	})
	b.count.Add(-1)
}

// active reports whether any listener is registered, so callers can skip
// building snapshots nobody will read.
func (b *snapshotBus) active() bool {
	return b.count.Load() > 0
}

// publish delivers the snapshot taken at version to every listener that has
// not yet seen it.
func (b *snapshotBus) publish(version uint64, tasks []Task) {
	if tasks == nil {
		return
	}

	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	b.mu.Lock()
	listeners := slices.Clone(b.listeners)
	b.mu.Unlock()

	for _, l := range listeners {
		if l.removed.Load() || version <= l.seen {
			continue
		}
		l.seen = version
		l.fn(slices.Clone(tasks))
	}
}

type completionEntry struct {
	fn CompletionCallback
}

// completionBus dispatches one-shot completion callbacks.
type completionBus struct {
	mu        sync.RWMutex
	callbacks []*completionEntry
}

func (b *completionBus) subscribe(fn CompletionCallback) func() {
	entry := &completionEntry{fn: fn}

	b.mu.Lock()
	b.callbacks = append(b.callbacks, entry)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.callbacks = slices.DeleteFunc(b.callbacks, func(e *completionEntry) bool {
				return e == entry
			})
		})
	}
}

func (b *completionBus) fire(t Task) {
	b.mu.RLock()
	callbacks := slices.Clone(b.callbacks)
	b.mu.RUnlock()

	for _, c := range callbacks {
		c.fn(t.clone())
	}
}
