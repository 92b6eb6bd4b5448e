package httpserver

import "time"

// Config holds the timeouts of the operational HTTP server.
type Config struct {
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s" yaml:"read_header_timeout"` // ReadHeaderTimeout bounds reading request headers.
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s" yaml:"write_timeout"`            // WriteTimeout bounds writing a response.
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s" yaml:"idle_timeout"`             // IdleTimeout closes idle keep-alive connections.
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s" yaml:"shutdown_timeout"`       // ShutdownTimeout is the time allowed for graceful shutdown.
}

// NewFromConfig creates a Server listening on addr.
// Only non-zero values from the config are applied.
func NewFromConfig(addr string, cfg Config, opts ...Option) *Server {
	configOpts := make([]Option, 0, 5)

	if addr != "" {
		configOpts = append(configOpts, WithAddr(addr))
	}
	if cfg.ReadHeaderTimeout > 0 {
		configOpts = append(configOpts, WithReadHeaderTimeout(cfg.ReadHeaderTimeout))
	}
	if cfg.WriteTimeout > 0 {
		configOpts = append(configOpts, WithWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.IdleTimeout > 0 {
		configOpts = append(configOpts, WithIdleTimeout(cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout > 0 {
		configOpts = append(configOpts, WithShutdownTimeout(cfg.ShutdownTimeout))
	}

	return New(append(configOpts, opts...)...)
}
