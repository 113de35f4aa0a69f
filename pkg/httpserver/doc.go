// Package httpserver runs an http.Handler with graceful shutdown and provides
// liveness and readiness handlers.
//
// Server wraps http.Server. Run blocks until the context is cancelled, SIGINT or
// SIGTERM arrives, or the listener fails; then it drains in-flight requests within
// the shutdown timeout and runs the registered stop hooks. A clean shutdown returns
// nil.
//
// # Usage
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func(ctx context.Context) {
//			purger.Stop()
//			pool.Close()
//		}),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// Options can also be passed to New directly: WithAddr, WithReadTimeout,
// WithWriteTimeout, WithIdleTimeout and WithShutdownTimeout. Invalid option values
// panic at construction.
//
// # Health checks
//
// LivenessHandler always answers 200. ReadinessHandler runs each Check with a timeout
// and answers 503 when any of them fails, listing results by name:
//
//	r.Get("/readyz", httpserver.ReadinessHandler(log, 2*time.Second,
//		httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)},
//	))
//
// # Errors
//
//   - ErrStart: the server could not be started; joined with ErrAlreadyRunning when
//     Run is called on a server that is already serving.
//   - ErrShutdown: the graceful shutdown did not finish cleanly.
package httpserver
