package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/honeytracks/pkg/httpserver"
	"github.com/dmitrymomot/honeytracks/pkg/logger"
	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

func newBacklogCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backlog",
		Short: "Inspect or flush the stored backlog",
	}
	cmd.AddCommand(newBacklogShowCommand(g))
	cmd.AddCommand(newBacklogFlushCommand(g))
	return cmd
}

func newBacklogShowCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored snapshot without consuming it",
		Long: `Print every stored event as one JSON object per line, oldest first.
Unreadable records are reported in the log and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx, g.cfg, g.log)
			if err != nil {
				return err
			}
			defer store.Close()

			blob, err := store.Load(ctx)
			if err != nil {
				return err
			}
			events, err := tracking.DecodeSnapshot(blob)
			if err != nil {
				if errors.Is(err, tracking.ErrMalformedSnapshot) {
					return err
				}
				g.log.WarnContext(ctx, "skipped unreadable snapshot records", logger.Error(err))
			}

			out := cmd.OutOrStdout()
			for _, e := range events {
				line, err := json.Marshal(e)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(out, string(line)); err != nil {
					return err
				}
			}
			g.log.InfoContext(ctx, "stored backlog", logger.BacklogLen(len(events)))
			return nil
		},
	}
}

func newBacklogFlushCommand(g *globalFlags) *cobra.Command {
	var (
		timeout     time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Deliver the stored backlog",
		Long: `Load the stored snapshot and deliver it until the backlog is empty or
--timeout elapses. Leftovers are written back to the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context(), g)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				stop, err := serveMetrics(cmd.Context(), g, s, metricsAddr)
				if err != nil {
					_ = s.close(cmd.Context())
					return err
				}
				defer stop()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			delivered, deliverErr := s.deliver(ctx, nil)
			closeErr := s.close(cmd.Context())
			if err := errors.Join(deliverErr, closeErr); err != nil {
				return err
			}

			if delivered {
				g.log.InfoContext(cmd.Context(), "backlog flushed")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "how long to wait for delivery")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while flushing, e.g. :9090")
	return cmd
}

// serveMetrics exposes the session metrics and store probes on addr until
// the returned stop is called.
func serveMetrics(ctx context.Context, g *globalFlags, s *session, addr string) (func(), error) {
	reg := prometheus.NewRegistry()
	s.metrics.MustRegister(reg)

	mux := httpserver.NewOpsMux(g.log,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		httpserver.Probe{Name: s.store.kind, Check: s.store.probe},
	)
	srv := httpserver.NewFromConfig(addr, g.cfg.HTTP, httpserver.WithLogger(g.log))
	if err := srv.Start(mux); err != nil {
		return nil, err
	}

	return func() {
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			g.log.WarnContext(ctx, "metrics server shutdown failed", logger.Error(err))
		}
	}, nil
}
