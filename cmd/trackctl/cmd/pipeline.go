package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/honeytracks/pkg/collector"
	"github.com/dmitrymomot/honeytracks/pkg/logger"
	"github.com/dmitrymomot/honeytracks/pkg/metrics"
	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

// session is a pipeline wired to its sender and store for one command run.
type session struct {
	pipeline *tracking.Pipeline
	store    *snapshotStore
	metrics  *metrics.Collector
	log      *slog.Logger
}

func newSession(ctx context.Context, g *globalFlags) (*session, error) {
	cfg := g.cfg

	opts, err := cfg.Tracking.Options()
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Tracking.Settings()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	senderOpts := []collector.Option{
		collector.WithSecretKey(settings.SecretKey()),
		collector.WithOnDelivery(m.ObserveDelivery),
		collector.WithLogger(g.log),
	}
	if cfg.BreakerFailures > 0 {
		senderOpts = append(senderOpts, collector.WithCircuitBreaker(collector.NewCircuitBreaker(
			cfg.BreakerFailures,
			collector.DefaultSuccessThreshold,
			collector.DefaultRecoveryTimeout,
		)))
	}
	sender, err := collector.NewSender(settings.Endpoint(), senderOpts...)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, g.log)
	if err != nil {
		return nil, err
	}

	p, err := tracking.New(sender, store, append(opts,
		tracking.WithLogger(g.log),
		tracking.WithObserver(m),
	)...)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &session{pipeline: p, store: store, metrics: m, log: g.log}, nil
}

// deliver starts the pipeline and waits until the backlog drains or ctx is
// done. It reports whether everything was delivered; leftovers are
// checkpointed by close.
func (s *session) deliver(ctx context.Context, record func(p *tracking.Pipeline)) (bool, error) {
	if err := s.pipeline.Start(ctx); err != nil {
		return false, err
	}
	if record != nil {
		record(s.pipeline)
	}

	err := s.pipeline.Drain(ctx)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.WarnContext(ctx, "backlog not drained, leftovers stay in the store",
			logger.BacklogLen(s.pipeline.Len()),
			logger.State(string(s.pipeline.State())),
		)
		return false, nil
	}
	return err == nil, err
}

// close checkpoints whatever is left and releases the store.
func (s *session) close(ctx context.Context) error {
	defer s.store.Close()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return s.pipeline.Shutdown(ctx)
}
