package cmd

import (
	"errors"

	"github.com/dmitrymomot/honeytracks/pkg/config"
	"github.com/dmitrymomot/honeytracks/pkg/file"
	"github.com/dmitrymomot/honeytracks/pkg/httpserver"
	"github.com/dmitrymomot/honeytracks/pkg/mongo"
	"github.com/dmitrymomot/honeytracks/pkg/pg"
	"github.com/dmitrymomot/honeytracks/pkg/redis"
	"github.com/dmitrymomot/honeytracks/pkg/tracking"
)

// Store kinds accepted by TRACKS_STORE.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreS3       = "s3"
)

var ErrUnknownStore = errors.New("unknown snapshot store")

// Config is everything trackctl reads from the YAML file and the environment.
type Config struct {
	Store   string `env:"TRACKS_STORE" envDefault:"file" yaml:"store"`
	DataDir string `env:"TRACKS_DATA_DIR" envDefault:"./data" yaml:"data_dir"`
	// Breaker trips after this many consecutive collector failures; 0 disables it.
	BreakerFailures int `env:"TRACKS_BREAKER_FAILURES" envDefault:"5" yaml:"breaker_failures"`

	Tracking tracking.Config   `envPrefix:"TRACKS_" yaml:"tracking"`
	HTTP     httpserver.Config `yaml:"http"`
	Redis    redis.Config      `yaml:"redis"`
	Postgres pg.Config         `yaml:"postgres"`
	Mongo    mongo.Config      `yaml:"mongo"`
	S3       file.S3Config     `yaml:"s3"`
}

func loadConfig(g *globalFlags) (*Config, error) {
	var opts []config.Option
	if g.envFile != "" {
		opts = append(opts, config.WithEnvFiles(g.envFile))
	}
	if g.configFile != "" {
		opts = append(opts, config.WithYAMLFile(g.configFile))
	}

	cfg := &Config{}
	if err := config.Parse(cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
