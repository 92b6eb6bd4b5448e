package tracking

import "time"

// Observer receives pipeline events for metrics collection.
// Methods are called synchronously and must not block.
type Observer interface {
	EventEnqueued(action string)
	EventsDropped(count int)
	BatchSent(size int, took time.Duration)
	BatchFailed(size int, err error)
	StateChanged(from, to State)
	BacklogSize(n int)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) EventEnqueued(string)         {}
func (NopObserver) EventsDropped(int)            {}
func (NopObserver) BatchSent(int, time.Duration) {}
func (NopObserver) BatchFailed(int, error)       {}
func (NopObserver) StateChanged(State, State)    {}
func (NopObserver) BacklogSize(int)              {}
