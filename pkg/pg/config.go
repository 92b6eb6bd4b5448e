package pg

import "time"

// Config describes the PostgreSQL pool used by the snapshot store.
type Config struct {
	ConnectionString  string        `env:"PG_CONN_URL" yaml:"conn_url"`                                      // ConnectionString is the connection string to the database.
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"4" yaml:"max_open_conns"`           // MaxOpenConns is the maximum number of open connections.
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"1" yaml:"max_idle_conns"`           // MaxIdleConns is the number of connections kept open.
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m" yaml:"healthcheck_period"`  // HealthCheckPeriod is the period between pool health checks.
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m" yaml:"max_conn_idle_time"` // MaxConnIdleTime closes connections idle for longer.
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m" yaml:"max_conn_lifetime"`   // MaxConnLifetime closes connections older than this.

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3" yaml:"retry_attempts"`  // RetryAttempts is the number of connection attempts.
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s" yaml:"retry_interval"` // RetryInterval is multiplied by the attempt number between attempts.

	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"tracking_schema_migrations" yaml:"migrations_table"` // MigrationsTable stores the applied migration version.
}
