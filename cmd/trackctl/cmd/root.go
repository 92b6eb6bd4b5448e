package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/honeytracks/pkg/logger"
)

type globalFlags struct {
	configFile string
	envFile    string
	logFormat  string
	logLevel   string

	log *slog.Logger
	cfg *Config
}

// NewRootCommand builds the trackctl command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "trackctl",
		Short: "Record analytics events and manage the stored backlog",
		Long: `trackctl records analytics events through the buffered delivery pipeline
and inspects or flushes the backlog snapshot left behind by earlier runs.

Settings come from the YAML file given with --config and from TRACKS_*
environment variables, which take precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logger.ParseLevel(g.logLevel)
			if err != nil {
				return err
			}
			format, err := logger.ParseFormat(g.logFormat)
			if err != nil {
				return err
			}
			g.log = logger.New(
				logger.WithLevel(level),
				logger.WithFormat(format),
				logger.WithOutput(cmd.ErrOrStderr()),
				logger.WithAttr(logger.Component("trackctl")),
			)

			g.cfg, err = loadConfig(g)
			return err
		},
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", "", ".env file loaded before reading the environment")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", string(logger.FormatText), "log format: text or json")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(newTrackCommand(g))
	root.AddCommand(newBacklogCommand(g))
	return root
}

// defaultTimeout bounds delivery in track and backlog flush.
const defaultTimeout = 30 * time.Second

// shutdownTimeout bounds the final checkpoint.
const shutdownTimeout = 10 * time.Second
