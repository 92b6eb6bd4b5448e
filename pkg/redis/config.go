package redis

import "time"

// Config describes the Redis connection used by the snapshot store.
type Config struct {
	// ConnectionURL is the server URL, e.g. "redis://:password@localhost:6379/0".
	ConnectionURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0" yaml:"url"`
	// RetryAttempts is the number of connection attempts.
	RetryAttempts int `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3" yaml:"retry_attempts"`
	// RetryInterval is the pause between connection attempts.
	RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s" yaml:"retry_interval"`
	// ConnectTimeout bounds all connection attempts together.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s" yaml:"connect_timeout"`
	// SnapshotTTL expires a stored snapshot; zero keeps it forever.
	SnapshotTTL time.Duration `env:"REDIS_SNAPSHOT_TTL" envDefault:"0s" yaml:"snapshot_ttl"`
}
