package tracking

import (
	"errors"
	"time"
)

// Config is the environment/file representation of the pipeline settings.
// Load it with config.Parse and the "TRACKS_" prefix.
type Config struct {
	APIKey                   string        `env:"API_KEY" yaml:"api_key"`
	SecretKey                string        `env:"SECRET_KEY" yaml:"secret_key"`
	TrackerURL               string        `env:"TRACKER_URL" envDefault:"http://tracker.honeytracks.com/?ApiKey=%1$s" yaml:"tracker_url"`
	UniqueCustomerIdentifier string        `env:"UNIQUE_CUSTOMER_IDENTIFIER" yaml:"unique_customer_identifier"`
	UniqueCustomerSubToken   string        `env:"SUB_TOKEN" yaml:"sub_token"`
	Language                 string        `env:"LANGUAGE" envDefault:"EN" yaml:"language"`
	Version                  string        `env:"VERSION" yaml:"version"`
	ClientIP                 string        `env:"CLIENT_IP" yaml:"client_ip"`
	Space                    string        `env:"SPACE" envDefault:"Default" yaml:"space"`
	Timestamp                int64         `env:"TIMESTAMP" yaml:"timestamp"`
	AutoTimestamp            bool          `env:"AUTO_TIMESTAMP" yaml:"auto_timestamp"`
	Enabled                  bool          `env:"ENABLED" envDefault:"true" yaml:"enabled"`
	BatchSize                int           `env:"BATCH_SIZE" envDefault:"50" yaml:"batch_size"`
	Interval                 time.Duration `env:"INTERVAL" envDefault:"100ms" yaml:"interval"`
	ErrorPause               time.Duration `env:"ERROR_PAUSE" envDefault:"5s" yaml:"error_pause"`
	Capacity                 int           `env:"CAPACITY" envDefault:"200" yaml:"capacity"`
	SnapshotKey              string        `env:"SNAPSHOT_KEY" envDefault:"htevents" yaml:"snapshot_key"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		TrackerURL:  DefaultTrackerURL,
		Language:    DefaultLanguage,
		Space:       DefaultSpace,
		Enabled:     true,
		BatchSize:   DefaultBatchSize,
		Interval:    DefaultInterval,
		ErrorPause:  DefaultErrorPause,
		Capacity:    DefaultCapacity,
		SnapshotKey: DefaultSnapshotKey,
	}
}

// DefaultSnapshotKey names the stored backlog snapshot.
const DefaultSnapshotKey = "htevents"

// Settings validates the identity fields and returns them as Settings.
// All invalid fields are reported together.
func (c Config) Settings() (Settings, error) {
	s := NewSettings()
	s.TrackerURL = c.TrackerURL
	s.UniqueCustomerIdentifier = c.UniqueCustomerIdentifier
	s.UniqueCustomerSubToken = c.UniqueCustomerSubToken
	s.Version = c.Version
	s.AutoTimestamp = c.AutoTimestamp
	if c.Space != "" {
		s.Space = c.Space
	}

	var errs []error
	if c.APIKey != "" {
		errs = append(errs, s.SetAPIKey(c.APIKey))
	}
	if c.SecretKey != "" {
		errs = append(errs, s.SetSecretKey(c.SecretKey))
	}
	errs = append(errs,
		s.SetLanguage(c.Language),
		s.SetClientIP(c.ClientIP),
		s.SetTimestamp(c.Timestamp),
	)
	if err := errors.Join(errs...); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Options converts the config into pipeline options, settings included.
func (c Config) Options() ([]Option, error) {
	if err := apply(notBlank("SnapshotKey", c.SnapshotKey)); err != nil {
		return nil, err
	}
	s, err := c.Settings()
	if err != nil {
		return nil, err
	}
	return []Option{
		WithSettings(s),
		WithEnabled(c.Enabled),
		WithBatchSize(c.BatchSize),
		WithInterval(c.Interval),
		WithErrorPause(c.ErrorPause),
		WithCapacity(c.Capacity),
	}, nil
}
