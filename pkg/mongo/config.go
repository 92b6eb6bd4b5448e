package mongo

import "time"

// Config describes the MongoDB connection and the snapshot collection.
type Config struct {
	ConnectionURL   string        `env:"MONGODB_URL" envDefault:"mongodb://localhost:27017" yaml:"url"`          // ConnectionURL is the URL of the database.
	Database        string        `env:"MONGODB_DATABASE" envDefault:"honeytracks" yaml:"database"`              // Database holds the snapshot collection.
	Collection      string        `env:"MONGODB_COLLECTION" envDefault:"tracking_snapshots" yaml:"collection"`   // Collection stores one document per snapshot key.
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s" yaml:"connect_timeout"`        // ConnectTimeout is the timeout for connecting to the database.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"10" yaml:"max_pool_size"`             // MaxPoolSize is the maximum number of pooled connections.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1" yaml:"min_pool_size"`              // MinPoolSize is the minimum number of pooled connections.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s" yaml:"max_conn_idle_time"` // MaxConnIdleTime closes connections idle for longer.
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true" yaml:"retry_writes"`             // RetryWrites retries failed writes once.
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true" yaml:"retry_reads"`               // RetryReads retries failed reads once.
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3" yaml:"retry_attempts"`            // RetryAttempts is the number of connection attempts.
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s" yaml:"retry_interval"`           // RetryInterval is the pause between connection attempts.
}
