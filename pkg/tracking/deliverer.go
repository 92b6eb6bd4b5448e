package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/honeytracks/pkg/logger"
)

// deliverer drains the backlog into the transport, one batch at a time.
//
// Loop: take up to batchSize events from the head, send them, and on failure
// put them back at the head and pause for errorPause before the next attempt.
// Between attempts it waits interval; with a zero interval and an empty
// backlog it parks on Backlog.Ready instead of polling.
type deliverer struct {
	backlog    *Backlog
	transport  Transport
	clock      Clock
	batchSize  int
	interval   time.Duration
	errorPause time.Duration
	logger     *slog.Logger
	observer   Observer
	sm         *stateMachine

	mu       sync.Mutex
	inFlight []Event
	seq      uint64
	detached bool
}

func newDeliverer(b *Backlog, t Transport, o *options) *deliverer {
	d := &deliverer{
		backlog:    b,
		transport:  t,
		clock:      o.clock,
		batchSize:  o.batchSize,
		interval:   o.interval,
		errorPause: o.errorPause,
		logger:     o.logger,
		observer:   o.observer,
	}
	d.sm = newStateMachine(StateIdle, deliveryTransitions, func(from, to State, _ trigger) {
		d.observer.StateChanged(from, to)
	})
	return d
}

// State returns the current delivery state.
func (d *deliverer) State() State {
	return d.sm.Current()
}

// run blocks until ctx is cancelled.
func (d *deliverer) run(ctx context.Context) {
	d.sm.Reset()

	for ctx.Err() == nil {
		batch, seq := d.takeBatch()
		if len(batch) == 0 {
			d.fire(ctx, triggerEmpty)
			if !d.idle(ctx) {
				return
			}
			continue
		}

		d.fire(ctx, triggerTick)

		start := d.clock.Now()
		err := d.transport.Send(ctx, batch)
		took := d.clock.Now().Sub(start)

		evicted, owned := d.finish(batch, seq, err != nil)
		if !owned {
			// Detached by a checkpoint; the batch belongs to the store now.
			return
		}

		if err == nil {
			d.fire(ctx, triggerSent)
			d.observer.BatchSent(len(batch), took)
			d.observer.BacklogSize(d.backlog.Len())
			d.logger.LogAttrs(ctx, slog.LevelDebug, "batch delivered",
				logger.BatchSize(len(batch)),
				logger.Duration(took),
			)
			if !d.sleep(ctx, d.interval) {
				return
			}
			continue
		}

		if evicted > 0 {
			d.observer.EventsDropped(evicted)
			d.logger.LogAttrs(ctx, slog.LevelWarn, "backlog over capacity after requeue",
				logger.Dropped(evicted),
			)
		}
		d.fire(ctx, triggerFailed)
		if ctx.Err() != nil {
			// Stopped mid-send: the batch is back in the backlog for the checkpoint.
			return
		}
		d.observer.BatchFailed(len(batch), err)
		d.observer.BacklogSize(d.backlog.Len())
		d.logger.LogAttrs(ctx, slog.LevelWarn, "batch delivery failed",
			logger.BatchSize(len(batch)),
			logger.Duration(d.errorPause),
			logger.Error(err),
		)

		if !d.sleep(ctx, d.errorPause) {
			return
		}
		d.fire(ctx, triggerResume)
		if !d.sleep(ctx, d.interval) {
			return
		}
	}
}

func (d *deliverer) fire(ctx context.Context, on trigger) {
	if err := d.sm.Fire(on); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "delivery state machine rejected transition",
			logger.State(string(d.sm.Current())),
			logger.Error(err),
		)
	}
}

// sleep waits dur on the clock. It returns false once ctx is done.
func (d *deliverer) sleep(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-d.clock.After(dur):
		return true
	}
}

// idle waits for the next attempt on an empty backlog.
func (d *deliverer) idle(ctx context.Context) bool {
	if d.interval > 0 {
		return d.sleep(ctx, d.interval)
	}
	select {
	case <-ctx.Done():
		return false
	case <-d.backlog.Ready():
		return true
	}
}

// takeBatch moves the next batch from the backlog into flight and returns
// it with a sequence number identifying this attempt.
func (d *deliverer) takeBatch() ([]Event, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.inFlight = d.backlog.TakeBatch(d.batchSize)
	d.detached = false
	return d.inFlight, d.seq
}

// finish clears the in-flight batch of attempt seq; a failed batch goes back
// to the head of the backlog. It reports owned=false, and touches nothing,
// when detachInFlight already handed the batch out.
func (d *deliverer) finish(batch []Event, seq uint64, failed bool) (evicted int, owned bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq || d.detached {
		return 0, false
	}
	if failed {
		evicted = d.backlog.RequeueFront(batch)
	}
	d.inFlight = nil
	return evicted, true
}

// detachInFlight hands the outstanding batch to the caller, typically for a
// checkpoint while the transport is still blocked.
func (d *deliverer) detachInFlight() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight == nil {
		return nil
	}
	batch := d.inFlight
	d.inFlight = nil
	d.detached = true
	return batch
}

// drained reports whether nothing is queued or in flight.
func (d *deliverer) drained() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight == nil && d.backlog.Len() == 0
}
