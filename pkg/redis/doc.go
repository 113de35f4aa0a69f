// Package redis provides helpers for connecting to a Redis server from formgate
// services.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which pings the server and retries using the supplied
//     configuration.
//   - Healthcheck, a probe for the readiness endpoint.
//
// Redis is optional for formgate. An empty REDIS_URL makes Connect return
// ErrNotConfigured, which the rate limiter and the webhook ledger treat as "use the
// local fallback". Configuration is described by Config, populated from the
// environment with pkg/config.
//
// # Usage
//
//	cfg := redis.Config{
//		ConnectionURL:  "redis://localhost:6379/0",
//		RetryAttempts:  3,
//		RetryInterval:  2 * time.Second,
//		ConnectTimeout: 10 * time.Second,
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	switch {
//	case errors.Is(err, redis.ErrNotConfigured):
//		// run with per-process counters
//	case err != nil:
//		log.Warn("redis unavailable", logger.Error(err))
//	default:
//		defer client.Close()
//	}
//
// The client and the connection error go straight into ratelimit.SelectStore, which
// picks the distributed store or the local one and logs why.
//
// Register the health check with the readiness handler:
//
//	checks = append(checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
//
// # Errors
//
//   - ErrNotConfigured: no connection URL.
//   - ErrFailedToParseRedisConnString: the URL is malformed.
//   - ErrRedisNotReady: every ping attempt failed; joined with the last error.
//   - ErrHealthcheckFailed: returned by the probe.
//
// # See Also
//
//   - https://github.com/redis/go-redis
package redis
