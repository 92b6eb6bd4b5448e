package tracking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

var errCollectorDown = errors.New("collector down")

func nopSend(context.Context, []tracking.Event) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock advances virtual time on every After call and fires at once.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1800000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type attempt struct {
	actions []string
	at      time.Time
	err     error
}

// recordingTransport records every attempt and fails the first failures of them.
type recordingTransport struct {
	mu       sync.Mutex
	clock    tracking.Clock
	failures int
	failing  bool
	attempts []attempt
}

func (r *recordingTransport) Send(_ context.Context, batch []tracking.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.failing || r.failures > 0 {
		if r.failures > 0 {
			r.failures--
		}
		err = errCollectorDown
	}
	at := time.Now()
	if r.clock != nil {
		at = r.clock.Now()
	}
	r.attempts = append(r.attempts, attempt{actions: actions(batch), at: at, err: err})
	return err
}

func (r *recordingTransport) setFailing(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = v
}

func (r *recordingTransport) all() []attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]attempt(nil), r.attempts...)
}

// delivered returns the actions of successful attempts in delivery order.
func (r *recordingTransport) delivered() []string {
	var out []string
	for _, a := range r.all() {
		if a.err == nil {
			out = append(out, a.actions...)
		}
	}
	return out
}

func (r *recordingTransport) failed() int {
	n := 0
	for _, a := range r.all() {
		if a.err != nil {
			n++
		}
	}
	return n
}

// MockStore is a mock implementation of tracking.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, snapshot string) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// recordingObserver captures state changes.
type recordingObserver struct {
	tracking.NopObserver

	mu          sync.Mutex
	transitions []string
	dropped     int
	enqueued    int
}

func (o *recordingObserver) StateChanged(from, to tracking.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, from.Name()+">"+to.Name())
}

func (o *recordingObserver) EventsDropped(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped += n
}

func (o *recordingObserver) EventEnqueued(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enqueued++
}

func (o *recordingObserver) snapshot() (transitions []string, enqueued, dropped int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.transitions...), o.enqueued, o.dropped
}

func snapshotActions(t *testing.T, blob string) []string {
	t.Helper()
	events, err := tracking.DecodeSnapshot(blob)
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return actions(events)
}

func drain(t *testing.T, p *tracking.Pipeline) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
}
