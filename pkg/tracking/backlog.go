package tracking

import "sync"

// Backlog is a bounded FIFO of pending events, oldest at the head.
// Whenever an insert would exceed the capacity, the oldest records are
// evicted until the backlog fits again. Safe for concurrent use.
type Backlog struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	ready    chan struct{}
}

// NewBacklog creates a backlog holding at most capacity events.
// A negative capacity is treated as zero, which drops every event.
func NewBacklog(capacity int) *Backlog {
	if capacity < 0 {
		capacity = 0
	}
	return &Backlog{
		capacity: capacity,
		ready:    make(chan struct{}, 1),
	}
}

// Capacity returns the maximum number of retained events.
func (b *Backlog) Capacity() int {
	return b.capacity
}

// Len returns the number of queued events.
func (b *Backlog) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Enqueue appends e and returns how many events were evicted to make room.
// It never blocks on delivery and never fails.
func (b *Backlog) Enqueue(e Event) int {
	b.mu.Lock()
	b.events = append(b.events, e)
	evicted := b.trimLocked()
	n := len(b.events)
	b.mu.Unlock()

	b.notify(n)
	return evicted
}

// TakeBatch removes and returns up to max events from the head.
// It returns nil when the backlog is empty or max is not positive.
func (b *Backlog) TakeBatch(max int) []Event {
	if max <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(max, len(b.events))
	if n == 0 {
		return nil
	}
	batch := make([]Event, n)
	copy(batch, b.events[:n])
	b.events = b.shrink(b.events[n:])
	return batch
}

// RequeueFront puts batch back at the head, ahead of everything enqueued
// since it was taken, preserving its order. Capacity is then re-applied
// oldest-first and the evicted count is returned.
func (b *Backlog) RequeueFront(batch []Event) int {
	if len(batch) == 0 {
		return 0
	}

	b.mu.Lock()
	merged := make([]Event, 0, len(batch)+len(b.events))
	merged = append(merged, batch...)
	merged = append(merged, b.events...)
	b.events = merged
	evicted := b.trimLocked()
	n := len(b.events)
	b.mu.Unlock()

	b.notify(n)
	return evicted
}

// Snapshot returns a copy of the queued events, oldest first.
func (b *Backlog) Snapshot() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == 0 {
		return nil
	}
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Restore replaces the contents with events and returns the evicted count.
func (b *Backlog) Restore(events []Event) int {
	b.mu.Lock()
	b.events = append([]Event(nil), events...)
	evicted := b.trimLocked()
	n := len(b.events)
	b.mu.Unlock()

	b.notify(n)
	return evicted
}

// Clear empties the backlog and returns what it held.
func (b *Backlog) Clear() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.events
	b.events = nil
	return out
}

// Ready returns a channel signalled after inserts leave the backlog non-empty.
// Signals are coalesced: one pending signal may stand for many inserts.
func (b *Backlog) Ready() <-chan struct{} {
	return b.ready
}

func (b *Backlog) trimLocked() int {
	over := len(b.events) - b.capacity
	if over <= 0 {
		return 0
	}
	b.events = b.shrink(b.events[over:])
	return over
}

// shrink drops the backing array once nothing is left in it.
func (b *Backlog) shrink(rest []Event) []Event {
	if len(rest) == 0 {
		return nil
	}
	return rest
}

func (b *Backlog) notify(n int) {
	if n == 0 {
		return
	}
	select {
	case b.ready <- struct{}{}:
	default:
	}
}
