// Package httpserver runs an http.Handler with sane timeouts and graceful
// shutdown driven by a context, plus liveness and readiness handlers.
//
// # Usage
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    log.Error("server failed", logger.Error(err))
//	}
//
// Readiness checks are named so operators can see which dependency failed:
//
//	r.Get("/readyz", httpserver.ReadinessHandler(log, 2*time.Second,
//	    httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//	    httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)},
//	))
package httpserver
