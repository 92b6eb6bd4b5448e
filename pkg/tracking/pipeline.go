package tracking

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/honeytracks/pkg/logger"
)

type lifecycle int

const (
	lifecycleNew lifecycle = iota
	lifecycleRunning
	lifecycleSuspended
	lifecycleClosed
)

// Pipeline owns the backlog, the deliverer and the snapshot store.
//
// Producers obtain a Tracker per space and record events from any goroutine.
// Events are delivered in batches by a single background loop once Start has
// been called. Suspend and Shutdown checkpoint everything not yet delivered
// into the Store; Start and Resume restore it. Events recorded before Start
// or while suspended are buffered in memory.
//
// Lifecycle calls may wait on the transport and the store; recording never
// does.
type Pipeline struct {
	id        uuid.UUID
	backlog   *Backlog
	deliverer *deliverer
	store     Store
	opts      *options
	logger    *slog.Logger

	mu       sync.Mutex
	settings Settings
	spaces   map[string]Tracker

	// gate orders the closed flag against in-progress enqueues.
	gate   sync.RWMutex
	closed atomic.Bool

	// life serializes Start, Suspend, Resume and Shutdown.
	life   sync.Mutex
	state  lifecycle
	cancel context.CancelFunc
	done   chan struct{}
	// stale is closed when a deliverer abandoned by stopDelivery returns.
	stale chan struct{}
}

// New builds a pipeline. It does not touch the store or start delivery.
func New(transport Transport, store Store, opts ...Option) (*Pipeline, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}
	if store == nil {
		return nil, ErrNilStore
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	o.logger = o.logger.With(logger.Component("tracking"), logger.PipelineID(id))

	b := NewBacklog(o.capacity)
	return &Pipeline{
		id:        id,
		backlog:   b,
		deliverer: newDeliverer(b, transport, o),
		store:     store,
		opts:      o,
		logger:    o.logger,
		settings:  withCustomerFallback(o.settings),
		spaces:    make(map[string]Tracker),
	}, nil
}

func withCustomerFallback(s Settings) Settings {
	if s.UniqueCustomerIdentifier == "" {
		s.UniqueCustomerIdentifier = AnonymousCustomer
	}
	return s
}

// ID identifies this pipeline instance in logs.
func (p *Pipeline) ID() uuid.UUID { return p.id }

// Enabled reports whether trackers record anything.
func (p *Pipeline) Enabled() bool { return p.opts.enabled }

// Len returns the number of events waiting in memory.
func (p *Pipeline) Len() int { return p.backlog.Len() }

// Pending returns a copy of the events waiting in memory.
func (p *Pipeline) Pending() []Event { return p.backlog.Snapshot() }

// State returns the current delivery state.
func (p *Pipeline) State() State { return p.deliverer.State() }

// Settings returns a copy of the current settings.
func (p *Pipeline) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// Configure applies fn to a copy of the settings and commits the copy only
// if fn succeeds. Cached space trackers are dropped so later Space calls see
// the change; trackers already handed out keep their own copy.
func (p *Pipeline) Configure(fn func(s *Settings) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.settings
	if err := fn(&next); err != nil {
		return err
	}
	p.settings = withCustomerFallback(next)
	clear(p.spaces)
	return nil
}

// Space returns the tracker bound to name, creating it on first use.
// A disabled pipeline returns a no-op tracker.
func (p *Pipeline) Space(name string) Tracker {
	if !p.opts.enabled {
		return Nop()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.spaces[name]; ok {
		return t
	}
	t := &tracker{settings: p.settings.withSpace(name), rec: p}
	p.spaces[name] = t
	return t
}

// Default returns the tracker for the configured space.
func (p *Pipeline) Default() Tracker {
	return p.Space(p.Settings().Space)
}

// ClearSpaces drops all cached space trackers.
func (p *Pipeline) ClearSpaces() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.spaces)
}

// Enqueue adds a fully built event to the backlog as is, without standard
// parameters. It returns the number of older events evicted to make room.
func (p *Pipeline) Enqueue(e Event) int {
	ctx := context.Background()

	if !p.opts.enabled {
		return 0
	}
	if err := e.Validate(); err != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "invalid event dropped",
			logger.Action(e.Action()),
			logger.Error(err),
		)
		return 0
	}

	p.gate.RLock()
	if p.closed.Load() {
		p.gate.RUnlock()
		p.logger.LogAttrs(ctx, slog.LevelWarn, "event recorded after shutdown, dropped",
			logger.Action(e.Action()),
		)
		return 0
	}
	evicted := p.backlog.Enqueue(e)
	p.gate.RUnlock()

	p.opts.observer.EventEnqueued(e.Action())
	if evicted > 0 {
		p.opts.observer.EventsDropped(evicted)
		p.logger.LogAttrs(ctx, slog.LevelWarn, "backlog full, oldest events dropped",
			logger.Dropped(evicted),
			logger.BacklogLen(p.backlog.Len()),
		)
	}
	p.opts.observer.BacklogSize(p.backlog.Len())
	return evicted
}

func (p *Pipeline) record(s Settings, e Event) {
	p.Enqueue(e.With(s.Params(p.opts.clock.Now())...))
}

// markClosed rejects further events. It returns once every enqueue that
// already passed the check has landed in the backlog.
func (p *Pipeline) markClosed() {
	p.gate.Lock()
	p.closed.Store(true)
	p.gate.Unlock()
}

// Start restores the stored snapshot into the backlog, clears the store and
// starts delivery. Events recorded before Start are kept behind the
// restored ones.
func (p *Pipeline) Start(ctx context.Context) error {
	p.life.Lock()
	defer p.life.Unlock()

	switch p.state {
	case lifecycleClosed:
		return ErrPipelineClosed
	case lifecycleRunning, lifecycleSuspended:
		return ErrPipelineRunning
	}

	p.restore(ctx)
	p.startDelivery()
	p.state = lifecycleRunning

	p.logger.LogAttrs(ctx, slog.LevelInfo, "tracking pipeline started",
		logger.BacklogLen(p.backlog.Len()),
	)
	return nil
}

// Suspend stops delivery and moves every undelivered event, including a
// batch still in flight, into the store. The in-memory backlog is emptied;
// the stored snapshot is authoritative until Resume.
func (p *Pipeline) Suspend(ctx context.Context) error {
	p.life.Lock()
	defer p.life.Unlock()

	if p.state != lifecycleRunning {
		return ErrPipelineNotActive
	}

	inFlight := p.stopDelivery(ctx)
	p.state = lifecycleSuspended
	return p.checkpoint(ctx, inFlight, false)
}

// Resume restores the stored snapshot ahead of anything recorded while
// suspended, clears the store and restarts delivery.
func (p *Pipeline) Resume(ctx context.Context) error {
	p.life.Lock()
	defer p.life.Unlock()

	if p.state != lifecycleSuspended {
		return ErrPipelineNotActive
	}

	p.restore(ctx)
	p.startDelivery()
	p.state = lifecycleRunning

	p.logger.LogAttrs(ctx, slog.LevelInfo, "tracking pipeline resumed",
		logger.BacklogLen(p.backlog.Len()),
	)
	return nil
}

// Shutdown stops delivery, checkpoints undelivered events and closes the
// pipeline. Events recorded afterwards are dropped. Calling Shutdown again
// is a no-op.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.life.Lock()
	defer p.life.Unlock()

	switch p.state {
	case lifecycleClosed:
		return nil
	case lifecycleRunning:
		inFlight := p.stopDelivery(ctx)
		p.state = lifecycleClosed
		p.markClosed()
		return p.checkpoint(ctx, inFlight, false)
	default:
		// The store still holds a snapshot that was never restored.
		p.state = lifecycleClosed
		p.markClosed()
		return p.checkpoint(ctx, nil, true)
	}
}

// Drain blocks until the backlog is empty and no batch is in flight, or ctx
// is done. It only makes progress while the pipeline is running.
func (p *Pipeline) Drain(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if p.deliverer.drained() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// startDelivery runs the deliverer in a new goroutine. If an abandoned
// deliverer is still blocked in the transport, the new one waits for it
// first so that at most one send is outstanding.
func (p *Pipeline) startDelivery() {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	stale := p.stale
	p.cancel = cancel
	p.done = done

	go func() {
		defer close(done)
		if stale != nil {
			select {
			case <-stale:
			case <-runCtx.Done():
				return
			}
		}
		p.deliverer.run(runCtx)
	}()
}

// stopDelivery cancels the deliverer and waits for it until ctx is done.
// If the transport is still blocked by then, the in-flight batch is detached
// and returned so it can be checkpointed.
func (p *Pipeline) stopDelivery(ctx context.Context) []Event {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	p.cancel = nil

	select {
	case <-p.done:
		if isClosed(p.stale) {
			p.stale = nil
		}
		return nil
	case <-ctx.Done():
		p.logger.LogAttrs(ctx, slog.LevelWarn, "deliverer did not stop in time, checkpointing in-flight batch",
			logger.Error(ctx.Err()),
		)
		p.stale = p.done
		return p.deliverer.detachInFlight()
	}
}

func isClosed(ch <-chan struct{}) bool {
	if ch == nil {
		return true
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// restore loads the stored snapshot, puts it at the head of the backlog
// and clears the store. A failing store leaves both untouched.
func (p *Pipeline) restore(ctx context.Context) {
	events, ok := p.loadStored(ctx)
	if !ok {
		return
	}
	if evicted := p.backlog.RequeueFront(events); evicted > 0 {
		p.opts.observer.EventsDropped(evicted)
		p.logger.LogAttrs(ctx, slog.LevelWarn, "restored snapshot exceeds capacity, oldest events dropped",
			logger.Dropped(evicted),
		)
	}
	if err := p.store.Save(ctx, EmptySnapshot); err != nil {
		p.logger.LogAttrs(ctx, slog.LevelError, "failed to clear stored snapshot",
			logger.Error(err),
		)
	}
	p.opts.observer.BacklogSize(p.backlog.Len())
}

func (p *Pipeline) loadStored(ctx context.Context) ([]Event, bool) {
	blob, err := p.store.Load(ctx)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelError, "failed to load stored snapshot",
			logger.Error(err),
		)
		return nil, false
	}
	events, err := DecodeSnapshot(blob)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "skipped unreadable snapshot records",
			logger.Error(err),
		)
	}
	return events, true
}

// checkpoint writes inFlight followed by the backlog to the store and empties
// the backlog. With mergeStored, the currently stored snapshot is kept in
// front. On failure the events stay in memory.
func (p *Pipeline) checkpoint(ctx context.Context, inFlight []Event, mergeStored bool) error {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), p.opts.checkpointTimeout)
		defer cancel()
	}

	pending := p.backlog.Clear()
	events := make([]Event, 0, len(inFlight)+len(pending))
	if mergeStored {
		if stored, ok := p.loadStored(ctx); ok {
			events = append(events, stored...)
		}
	}
	events = append(events, inFlight...)
	events = append(events, pending...)

	snapshot, err := EncodeSnapshot(events)
	if err == nil {
		err = p.store.Save(ctx, snapshot)
	}
	if err != nil {
		p.backlog.RequeueFront(append(inFlight, pending...))
		p.logger.LogAttrs(ctx, slog.LevelError, "failed to checkpoint backlog",
			logger.BacklogLen(len(events)),
			logger.Error(err),
		)
		return err
	}

	p.opts.observer.BacklogSize(0)
	p.logger.LogAttrs(ctx, slog.LevelInfo, "backlog checkpointed",
		logger.BacklogLen(len(events)),
	)
	return nil
}
