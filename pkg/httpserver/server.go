package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

type config struct {
	addr              string
	readHeaderTimeout time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
}

func defaultConfig() *config {
	return &config{
		addr:              ":9090",
		readHeaderTimeout: 5 * time.Second,
		shutdownTimeout:   5 * time.Second,
	}
}

// Server runs an http.Server in the background next to other work, such as
// a pipeline flush, and stops it gracefully.
type Server struct {
	cfg  *config
	once sync.Once

	mu   sync.Mutex
	srv  *http.Server
	addr string
	done chan error
}

// New returns a configured Server.
func New(opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg}
}

// Start listens and serves handler in the background.
// Listening errors are returned immediately wrapped with ErrStart.
func (s *Server) Start(handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return ErrAlreadyStarted
	}

	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		return errors.Join(ErrStart, err)
	}

	s.srv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.readHeaderTimeout,
		WriteTimeout:      s.cfg.writeTimeout,
		IdleTimeout:       s.cfg.idleTimeout,
	}
	s.addr = ln.Addr().String()
	s.done = make(chan error, 1)

	go func(srv *http.Server, done chan<- error) {
		done <- srv.Serve(ln)
	}(s.srv, s.done)

	s.cfg.logger.Info("http server started", "addr", s.addr)
	return nil
}

// Run starts the server and blocks until ctx is done, then shuts it down.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if err := s.Start(handler); err != nil {
		return err
	}

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.WithoutCancel(ctx))
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Join(ErrStart, err)
	}
}

// Addr returns the address the server listens on, "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown stops the server gracefully. It is safe for repeated calls.
// Any error from http.Server.Shutdown is wrapped with ErrShutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
		s.cfg.logger.Info("http server stopped", "addr", s.Addr())
	})

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
