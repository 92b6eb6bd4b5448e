package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/honeytracks/pkg/logger"
	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

var ErrInvalidField = errors.New("invalid field, expected key=value")

func newTrackCommand(g *globalFlags) *cobra.Command {
	var (
		fields  []string
		space   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "track <action>",
		Short: "Record one event and deliver it",
		Long: `Record one event with the standard parameters appended and deliver it
together with any backlog left by earlier runs. Whatever is not delivered
before --timeout is written back to the snapshot store.`,
		Example: `  trackctl track User::Login
  trackctl track Feature::Usage --field FeatureType=Map --field Quantity=1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := args[0]
			parsed, err := parseFields(fields)
			if err != nil {
				return err
			}
			if err := tracking.NewEvent(action, parsed...).Validate(); err != nil {
				return err
			}

			s, err := newSession(cmd.Context(), g)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			delivered, deliverErr := s.deliver(ctx, func(p *tracking.Pipeline) {
				tr := p.Default()
				if space != "" {
					tr = p.Space(space)
				}
				tr.Track(action, parsed...)
			})
			closeErr := s.close(cmd.Context())
			if err := errors.Join(deliverErr, closeErr); err != nil {
				return err
			}

			g.log.InfoContext(cmd.Context(), "event recorded",
				logger.Action(action),
				slog.Bool("delivered", delivered),
			)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "event field as key=value, repeatable")
	cmd.Flags().StringVar(&space, "space", "", "tracking space (defaults to the configured space)")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "how long to wait for delivery")
	return cmd
}

// parseFields turns key=value pairs into event fields, keeping their order.
func parseFields(pairs []string) ([]tracking.Field, error) {
	out := make([]tracking.Field, 0, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, pair)
		}
		out = append(out, tracking.F(k, v))
	}
	return out, nil
}
