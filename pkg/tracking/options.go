package tracking

import (
	"log/slog"
	"time"
)

// Defaults for the delivery loop and backlog.
const (
	DefaultBatchSize         = 50
	DefaultInterval          = 100 * time.Millisecond
	DefaultErrorPause        = 5 * time.Second
	DefaultCapacity          = 200
	DefaultCheckpointTimeout = 5 * time.Second
)

type options struct {
	batchSize         int
	interval          time.Duration
	errorPause        time.Duration
	capacity          int
	checkpointTimeout time.Duration
	enabled           bool
	settings          Settings
	clock             Clock
	logger            *slog.Logger
	observer          Observer
}

func defaultOptions() *options {
	return &options{
		batchSize:         DefaultBatchSize,
		interval:          DefaultInterval,
		errorPause:        DefaultErrorPause,
		capacity:          DefaultCapacity,
		checkpointTimeout: DefaultCheckpointTimeout,
		enabled:           true,
		settings:          NewSettings(),
		clock:             RealClock(),
		logger:            slog.Default(),
		observer:          NopObserver{},
	}
}

func (o *options) validate() error {
	return apply(
		positive("BatchSize", o.batchSize),
		notNegative("Interval", int64(o.interval)),
		notNegative("ErrorPause", int64(o.errorPause)),
		notNegative("Capacity", int64(o.capacity)),
	)
}

// Option configures a Pipeline.
type Option func(*options)

// WithBatchSize caps the number of events sent in one request.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// WithInterval sets the pause between delivery attempts.
// Zero attempts the next batch right after the previous one.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithErrorPause sets the flat cooldown after a failed send.
func WithErrorPause(d time.Duration) Option {
	return func(o *options) { o.errorPause = d }
}

// WithCapacity bounds the backlog. Zero keeps tracking enabled but drops every event.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithCheckpointTimeout bounds the store write made on Suspend and Shutdown
// once the caller's context is already done.
func WithCheckpointTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.checkpointTimeout = d
		}
	}
}

// WithEnabled switches tracking on or off. Disabled pipelines hand out no-op trackers.
func WithEnabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// WithSettings sets the identity reported with every event.
func WithSettings(s Settings) Option {
	return func(o *options) { o.settings = s }
}

// WithClock replaces the time source.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers a metrics observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}
