package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore counts in Redis with INCR and PEXPIRE sent as one MULTI/EXEC round trip.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisClock overrides the time source used to compute reset times.
func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Increment implements Store. Keys are window-scoped, so refreshing the expiry on
// every hit only keeps a finished window's key around for at most one extra window.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Entry, error) {
	if window <= 0 {
		return Entry{}, ErrInvalidWindow
	}

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.PExpire(ctx, key, window)
		return nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("redis increment %s: %w", key, err)
	}

	return Entry{Count: incr.Val(), ResetAt: WindowEnd(s.now(), window)}, nil
}
