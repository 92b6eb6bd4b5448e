package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/honeytracks/pkg/logger"
)

// Probe is a named dependency check, e.g. a snapshot store ping.
type Probe struct {
	Name  string
	Check func(context.Context) error
}

// HealthCheckHandler returns a HTTP handler that can be used for both
// liveness and readiness probes.
//
//   - Liveness: with no probes the handler returns 200 OK with body "ALIVE".
//   - Readiness: every probe runs with the request context; if all succeed
//     the handler returns 200 OK with body "READY", otherwise 503 Service
//     Unavailable with body "NOT_READY".
func HealthCheckHandler(log *slog.Logger, probes ...Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(probes) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, p := range probes {
			if err := p.Check(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed",
					slog.String("probe", p.Name),
					logger.Error(err),
				)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}

// NewOpsMux routes /metrics to metrics, /healthz to a liveness probe and
// /readyz to the given probes.
func NewOpsMux(log *slog.Logger, metrics http.Handler, probes ...Probe) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics)
	mux.Handle("GET /healthz", HealthCheckHandler(log))
	mux.Handle("GET /readyz", HealthCheckHandler(log, probes...))
	return mux
}
