package tracking_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

func newPipeline(t *testing.T, tr tracking.Transport, store tracking.Store, opts ...tracking.Option) *tracking.Pipeline {
	t.Helper()
	base := []tracking.Option{
		tracking.WithInterval(0),
		tracking.WithLogger(discardLogger()),
	}
	p, err := tracking.New(tr, store, append(base, opts...)...)
	require.NoError(t, err)
	return p
}

func shutdown(t *testing.T, p *tracking.Pipeline) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	store := tracking.NewMemoryStore("")

	_, err := tracking.New(nil, store)
	assert.ErrorIs(t, err, tracking.ErrNilTransport)

	_, err = tracking.New(tracking.TransportFunc(nopSend), nil)
	assert.ErrorIs(t, err, tracking.ErrNilStore)

	_, err = tracking.New(tracking.TransportFunc(nopSend), store,
		tracking.WithBatchSize(0),
		tracking.WithErrorPause(-time.Second),
	)
	assert.ErrorIs(t, err, tracking.ErrInvalidOption)
	assert.True(t, tracking.IsConfigError(err))
}

func TestPipelineDeliversInBatches(t *testing.T) {
	t.Parallel()

	tr := &recordingTransport{}
	store := tracking.NewMemoryStore("")
	p := newPipeline(t, tr, store, tracking.WithBatchSize(2))

	for _, a := range []string{"A", "B", "C", "D", "E"} {
		p.Default().Track(a)
	}
	require.Equal(t, 5, p.Len())

	require.NoError(t, p.Start(context.Background()))
	drain(t, p)

	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, tr.delivered())
	for _, a := range tr.all() {
		assert.LessOrEqual(t, len(a.actions), 2)
	}
	assert.Equal(t, tracking.EmptySnapshot, store.Value())

	// Events recorded while running are picked up without polling.
	p.Default().Track("F")
	drain(t, p)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, tr.delivered())

	shutdown(t, p)
	assert.Equal(t, tracking.EmptySnapshot, store.Value())
}

func TestPipelineRetriesAfterFailure(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tr := &recordingTransport{clock: clock, failures: 1}
	obs := &recordingObserver{}
	p := newPipeline(t, tr, tracking.NewMemoryStore(""),
		tracking.WithClock(clock),
		tracking.WithErrorPause(5*time.Second),
		tracking.WithObserver(obs),
	)

	p.Default().Track("A")
	p.Default().Track("B")

	require.NoError(t, p.Start(context.Background()))
	drain(t, p)
	shutdown(t, p)

	attempts := tr.all()
	require.Len(t, attempts, 2)
	assert.ErrorIs(t, attempts[0].err, errCollectorDown)
	assert.NoError(t, attempts[1].err)
	assert.Equal(t, []string{"A", "B"}, attempts[0].actions)
	assert.Equal(t, attempts[0].actions, attempts[1].actions)
	assert.GreaterOrEqual(t, attempts[1].at.Sub(attempts[0].at), 5*time.Second)

	transitions, enqueued, _ := obs.snapshot()
	assert.Equal(t, 2, enqueued)
	assert.Equal(t, []string{
		"idle>sending",
		"sending>cooldown",
		"cooldown>idle",
		"idle>sending",
		"sending>idle",
	}, transitions)
}

func TestPipelineStartRestoresSnapshot(t *testing.T) {
	t.Parallel()

	stored, err := tracking.EncodeSnapshot([]tracking.Event{ev("S1"), ev("S2")})
	require.NoError(t, err)

	tr := &recordingTransport{}
	store := tracking.NewMemoryStore(stored)
	p := newPipeline(t, tr, store)

	p.Default().Track("N1")
	require.NoError(t, p.Start(context.Background()))
	drain(t, p)

	assert.Equal(t, []string{"S1", "S2", "N1"}, tr.delivered())
	assert.Equal(t, tracking.EmptySnapshot, store.Value())
	shutdown(t, p)
}

func TestPipelineStartSkipsUnreadableRecords(t *testing.T) {
	t.Parallel()

	tr := &recordingTransport{}
	store := tracking.NewMemoryStore(`[{"action":"S1","eventData":{}},{"broken":true}]`)
	p := newPipeline(t, tr, store)

	require.NoError(t, p.Start(context.Background()))
	drain(t, p)
	shutdown(t, p)

	assert.Equal(t, []string{"S1"}, tr.delivered())
}

func TestPipelineSuspendResume(t *testing.T) {
	t.Parallel()

	tr := &recordingTransport{failing: true}
	store := tracking.NewMemoryStore("")
	p := newPipeline(t, tr, store, tracking.WithErrorPause(time.Hour))

	p.Default().Track("A")
	p.Default().Track("B")
	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return tr.failed() > 0 }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, p.Suspend(context.Background()))
	assert.Zero(t, p.Len())
	assert.Equal(t, []string{"A", "B"}, snapshotActions(t, store.Value()))

	p.Default().Track("C")
	assert.Equal(t, 1, p.Len())

	tr.setFailing(false)
	require.NoError(t, p.Resume(context.Background()))
	drain(t, p)

	assert.Equal(t, []string{"A", "B", "C"}, tr.delivered())
	assert.Equal(t, tracking.EmptySnapshot, store.Value())
	shutdown(t, p)
}

func TestPipelineLifecycleErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t, tracking.TransportFunc(nopSend), tracking.NewMemoryStore(""))

	assert.ErrorIs(t, p.Suspend(ctx), tracking.ErrPipelineNotActive)
	assert.ErrorIs(t, p.Resume(ctx), tracking.ErrPipelineNotActive)

	require.NoError(t, p.Start(ctx))
	assert.ErrorIs(t, p.Start(ctx), tracking.ErrPipelineRunning)
	assert.ErrorIs(t, p.Resume(ctx), tracking.ErrPipelineNotActive)

	require.NoError(t, p.Suspend(ctx))
	assert.ErrorIs(t, p.Start(ctx), tracking.ErrPipelineRunning)

	require.NoError(t, p.Shutdown(ctx))
	require.NoError(t, p.Shutdown(ctx))
	assert.ErrorIs(t, p.Start(ctx), tracking.ErrPipelineClosed)
	assert.ErrorIs(t, p.Resume(ctx), tracking.ErrPipelineNotActive)
}

func TestPipelineShutdownWithoutStart(t *testing.T) {
	t.Parallel()

	stored, err := tracking.EncodeSnapshot([]tracking.Event{ev("S1")})
	require.NoError(t, err)

	tr := &recordingTransport{}
	store := tracking.NewMemoryStore(stored)
	p := newPipeline(t, tr, store)

	p.Default().Track("N1")
	shutdown(t, p)

	assert.Equal(t, []string{"S1", "N1"}, snapshotActions(t, store.Value()))
	assert.Empty(t, tr.all())

	assert.Zero(t, p.Enqueue(ev("late")))
	p.Default().Track("late")
	assert.Zero(t, p.Len())
}

func TestPipelineShutdownCheckpointsBlockedBatch(t *testing.T) {
	t.Parallel()

	var (
		called  = make(chan struct{})
		release = make(chan struct{})
		once    sync.Once
	)
	tr := tracking.TransportFunc(func(context.Context, []tracking.Event) error {
		once.Do(func() { close(called) })
		<-release
		return errCollectorDown
	})
	t.Cleanup(func() { close(release) })

	store := tracking.NewMemoryStore("")
	p := newPipeline(t, tr, store, tracking.WithCheckpointTimeout(time.Second))

	p.Default().Track("A")
	require.NoError(t, p.Start(context.Background()))
	<-called
	p.Default().Track("B")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	assert.Equal(t, []string{"A", "B"}, snapshotActions(t, store.Value()))
	assert.Zero(t, p.Len())
}

func TestPipelineCheckpointFailureKeepsEvents(t *testing.T) {
	t.Parallel()

	errDiskFull := errors.New("disk full")
	store := &MockStore{}
	store.On("Load", mock.Anything).Return("", nil)
	store.On("Save", mock.Anything, tracking.EmptySnapshot).Return(nil).Once()
	store.On("Save", mock.Anything, mock.Anything).Return(errDiskFull)

	tr := &recordingTransport{failing: true}
	p := newPipeline(t, tr, store, tracking.WithErrorPause(time.Hour))

	p.Default().Track("A")
	p.Default().Track("B")
	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return tr.failed() > 0 }, 5*time.Second, 5*time.Millisecond)

	err := p.Suspend(context.Background())
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, []string{"A", "B"}, actions(p.Pending()))
	store.AssertExpectations(t)
}

func TestPipelineLoadFailureKeepsStoreUntouched(t *testing.T) {
	t.Parallel()

	store := &MockStore{}
	store.On("Load", mock.Anything).Return("", errors.New("connection refused"))

	tr := &recordingTransport{}
	p := newPipeline(t, tr, store)

	p.Default().Track("A")
	require.NoError(t, p.Start(context.Background()))
	drain(t, p)
	assert.Equal(t, []string{"A"}, tr.delivered())
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	store.On("Save", mock.Anything, tracking.EmptySnapshot).Return(nil)
	shutdown(t, p)
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestPipelineCapacity(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	p := newPipeline(t, tracking.TransportFunc(nopSend), tracking.NewMemoryStore(""),
		tracking.WithCapacity(3),
		tracking.WithObserver(obs),
	)

	for _, a := range []string{"A", "B", "C"} {
		assert.Zero(t, p.Enqueue(ev(a)))
	}
	assert.Equal(t, 1, p.Enqueue(ev("D")))
	assert.Equal(t, []string{"B", "C", "D"}, actions(p.Pending()))

	_, enqueued, dropped := obs.snapshot()
	assert.Equal(t, 4, enqueued)
	assert.Equal(t, 1, dropped)
}

func TestPipelineEnqueueRejectsEmptyAction(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, tracking.TransportFunc(nopSend), tracking.NewMemoryStore(""))
	assert.Zero(t, p.Enqueue(tracking.NewEvent("")))
	p.Default().Track("")
	assert.Zero(t, p.Len())
}

func TestPipelineEnqueueRejectsInvalidUTF8(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, tracking.TransportFunc(nopSend), tracking.NewMemoryStore(""))
	p.Enqueue(tracking.NewEvent("Custom", tracking.F("Name", "\xff")))
	p.Default().Track("Custom\xfe")
	assert.Zero(t, p.Len())
}

func TestPipelineDisabled(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, tracking.TransportFunc(nopSend), tracking.NewMemoryStore(""),
		tracking.WithEnabled(false),
	)
	assert.False(t, p.Enabled())
	assert.Equal(t, tracking.Nop(), p.Default())

	p.Space("eu-1").TrackLogin()
	assert.Zero(t, p.Enqueue(ev("A")))
	assert.Zero(t, p.Len())
}

func TestPipelineConfigure(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, tracking.TransportFunc(nopSend), tracking.NewMemoryStore(""))
	require.NoError(t, p.Configure(func(s *tracking.Settings) error {
		return s.SetAPIKey(validKey)
	}))

	before := p.Default()
	err := p.Configure(func(s *tracking.Settings) error {
		s.Space = "changed"
		return s.SetAPIKey("zzz")
	})
	require.ErrorIs(t, err, tracking.ErrInvalidAPIKey)
	assert.Equal(t, validKey, p.Settings().APIKey())
	assert.Equal(t, tracking.DefaultSpace, p.Settings().Space)
	assert.Same(t, before, p.Default(), "failed configure must keep cached trackers")

	require.NoError(t, p.Configure(func(s *tracking.Settings) error {
		s.Version = "2.0"
		return nil
	}))
	assert.NotSame(t, before, p.Default())

	p.Default().TrackLogin()
	v, _ := p.Pending()[0].Field(tracking.ParamVersion)
	assert.Equal(t, "2.0", v)
}

func TestPipelineAnonymousCustomer(t *testing.T) {
	t.Parallel()

	p := newPipeline(t, tracking.TransportFunc(nopSend), tracking.NewMemoryStore(""))
	p.Default().TrackLogin()

	v, ok := p.Pending()[0].Field(tracking.ParamUniqueCustomerIdentifier)
	require.True(t, ok)
	assert.Equal(t, tracking.AnonymousCustomer, v)
}

// blockingTransport blocks the first Send until release is closed,
// ignoring ctx, and records how many sends overlap.
type blockingTransport struct {
	called   chan struct{}
	release  chan struct{}
	once     sync.Once
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu        sync.Mutex
	delivered []string
}

func newBlockingTransport(t *testing.T) *blockingTransport {
	t.Helper()
	tr := &blockingTransport{called: make(chan struct{}), release: make(chan struct{})}
	t.Cleanup(tr.unblock)
	return tr
}

func (b *blockingTransport) Send(_ context.Context, batch []tracking.Event) error {
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		seen := b.maxSeen.Load()
		if n <= seen || b.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if b.calls.Add(1) == 1 {
		close(b.called)
		<-b.release
		return nil
	}
	b.mu.Lock()
	b.delivered = append(b.delivered, actions(batch)...)
	b.mu.Unlock()
	return nil
}

func (b *blockingTransport) unblock() {
	b.once.Do(func() { close(b.release) })
}

func (b *blockingTransport) deliveredActions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.delivered...)
}

// slowStore delays every Save once armed.
type slowStore struct {
	*tracking.MemoryStore
	delay   time.Duration
	saving  chan struct{}
	armOnce sync.Once
}

func (s *slowStore) Save(ctx context.Context, snapshot string) error {
	s.armOnce.Do(func() { close(s.saving) })
	time.Sleep(s.delay)
	return s.MemoryStore.Save(ctx, snapshot)
}

func TestPipelineRecordingDuringBlockedSuspend(t *testing.T) {
	t.Parallel()

	tr := newBlockingTransport(t)
	store := tracking.NewMemoryStore("")
	p := newPipeline(t, tr, store)

	p.Default().Track("A")
	require.NoError(t, p.Start(context.Background()))
	<-tr.called

	suspended := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		suspended <- p.Suspend(ctx)
	}()
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	p.Enqueue(ev("B"))
	p.Default().Track("C")
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	require.NoError(t, <-suspended)
	assert.Equal(t, []string{"A", "B", "C"}, snapshotActions(t, store.Value()))
}

func TestPipelineRecordingDuringSlowCheckpoint(t *testing.T) {
	t.Parallel()

	store := &slowStore{
		MemoryStore: tracking.NewMemoryStore(""),
		delay:       500 * time.Millisecond,
		saving:      make(chan struct{}),
	}
	p := newPipeline(t, tracking.TransportFunc(nopSend), store)
	p.Default().Track("A")

	closed := make(chan error, 1)
	go func() { closed <- p.Shutdown(context.Background()) }()
	<-store.saving

	start := time.Now()
	p.Default().TrackLogin()
	_ = p.Settings()
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	require.NoError(t, <-closed)
	assert.Equal(t, []string{"A"}, snapshotActions(t, store.Value()))
}

func TestPipelineResumeWaitsForAbandonedSend(t *testing.T) {
	t.Parallel()

	tr := newBlockingTransport(t)
	store := tracking.NewMemoryStore("")
	p := newPipeline(t, tr, store)

	p.Default().Track("A")
	require.NoError(t, p.Start(context.Background()))
	<-tr.called

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Suspend(ctx))
	assert.Equal(t, []string{"A"}, snapshotActions(t, store.Value()))

	require.NoError(t, p.Resume(context.Background()))
	p.Default().Track("B")

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, tr.calls.Load(), "no send while the abandoned one is outstanding")

	tr.unblock()
	require.Eventually(t, func() bool {
		return len(tr.deliveredActions()) == 2
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"A", "B"}, tr.deliveredActions())
	assert.EqualValues(t, 1, tr.maxSeen.Load())

	shutdown(t, p)
}
