// Package httpserver runs a small operational HTTP server next to a
// long-running command: Prometheus metrics, liveness and readiness.
//
//	srv := httpserver.New(httpserver.WithAddr(":9090"), httpserver.WithLogger(log))
//	mux := httpserver.NewOpsMux(log, promhttp.Handler(),
//		httpserver.Probe{Name: "redis", Check: redis.Healthcheck(client)},
//	)
//	if err := srv.Start(mux); err != nil {
//		return err
//	}
//	defer srv.Shutdown(context.Background())
//
// Start returns once the listener is bound, so WithAddr("127.0.0.1:0")
// works and Addr reports the chosen port. Run blocks until the context is
// done instead.
package httpserver
