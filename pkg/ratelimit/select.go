package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/metrics"
	redisconn "github.com/dmitrymomot/formgate/pkg/redis"
)

// SelectStore picks the distributed store when client is connected and falls back to a
// MemoryStore when Redis is unconfigured or failed to connect. The fallback is logged
// at WARN because enforcement becomes per-process.
func SelectStore(client redis.UniversalClient, connErr error, log *slog.Logger, rec *metrics.Recorder) Store {
	if log == nil {
		log = logger.Nop()
	}

	if client != nil && connErr == nil {
		rec.StoreMode(metrics.StoreModeDistributed)
		log.Info("rate limiter using redis counters", logger.Component("ratelimit"))
		return NewRedisStore(client)
	}

	reason := "redis connection failed"
	if connErr == nil || errors.Is(connErr, redisconn.ErrNotConfigured) {
		reason = "redis not configured"
	}
	log.Warn("rate limiter falling back to in-process counters, limits are enforced per instance",
		logger.Component("ratelimit"),
		slog.String("reason", reason),
		logger.Error(connErr),
	)
	rec.StoreMode(metrics.StoreModeLocal)
	return NewMemoryStore(WithSweepInterval(time.Minute))
}

// closer is implemented by stores holding background resources.
type closer interface {
	Close() error
}

// CloseStore releases store resources when it has any.
func CloseStore(_ context.Context, s Store) error {
	if c, ok := s.(closer); ok {
		return c.Close()
	}
	return nil
}
