package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formgate/pkg/ratelimit"
	"github.com/dmitrymomot/formgate/pkg/tier"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	t.Run("counts within window", func(t *testing.T) {
		t.Parallel()
		clock := newClock(time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC))
		store := ratelimit.NewMemoryStore(ratelimit.WithMemoryClock(clock.Now))

		e, err := store.Increment(context.Background(), "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.Count)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC), e.ResetAt.UTC())

		e, err = store.Increment(context.Background(), "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(2), e.Count)
	})

	t.Run("lazily replaces expired entries", func(t *testing.T) {
		t.Parallel()
		clock := newClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		store := ratelimit.NewMemoryStore(ratelimit.WithMemoryClock(clock.Now))

		for range 3 {
			_, err := store.Increment(context.Background(), "k", time.Minute)
			require.NoError(t, err)
		}
		clock.Advance(time.Minute)

		e, err := store.Increment(context.Background(), "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), e.Count)
	})

	t.Run("sweep drops expired entries", func(t *testing.T) {
		t.Parallel()
		clock := newClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		store := ratelimit.NewMemoryStore(ratelimit.WithMemoryClock(clock.Now))

		_, _ = store.Increment(context.Background(), "a", time.Second)
		_, _ = store.Increment(context.Background(), "b", time.Hour)
		require.Equal(t, 2, store.Len())

		clock.Advance(2 * time.Second)
		assert.Equal(t, 1, store.Sweep())
		assert.Equal(t, 1, store.Len())
	})

	t.Run("background sweep", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore(ratelimit.WithSweepInterval(10 * time.Millisecond))
		t.Cleanup(func() { _ = store.Close() })

		_, err := store.Increment(context.Background(), "short", time.Millisecond)
		require.NoError(t, err)

		assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 10*time.Millisecond)
		assert.NoError(t, store.Close())
	})

	t.Run("concurrent increments are counted once each", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.NewMemoryStore()

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = store.Increment(context.Background(), "hot", time.Hour)
			}()
		}
		wg.Wait()

		e, err := store.Increment(context.Background(), "hot", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(51), e.Count)
	})

	t.Run("rejects invalid window", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewMemoryStore().Increment(context.Background(), "k", 0)
		assert.ErrorIs(t, err, ratelimit.ErrInvalidWindow)
	})
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	t.Run("increments and sets expiry", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		store := ratelimit.NewRedisStore(client)
		key := ratelimit.Key(tier.ResourceSubmission, tier.Free, "203.0.113.5", 42)

		for i := 1; i <= 3; i++ {
			e, err := store.Increment(context.Background(), key, time.Minute)
			require.NoError(t, err)
			assert.Equal(t, int64(i), e.Count)
		}
		assert.Equal(t, time.Minute, mr.TTL(key))
		got, err := mr.Get(key)
		require.NoError(t, err)
		assert.Equal(t, "3", got)
	})

	t.Run("reports connection errors", func(t *testing.T) {
		t.Parallel()
		client := unreachableClient(t)

		_, err := ratelimit.NewRedisStore(client).Increment(context.Background(), "k", time.Minute)
		assert.Error(t, err)
	})
}

func TestLimiterWithUnreachableRedisFailsOpen(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(unreachableClient(t)), tier.DefaultTable())

	for range 15 {
		res, err := limiter.Check(context.Background(), tier.ResourceSubmission, tier.Free, "203.0.113.5")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.True(t, res.Degraded)
	}
}

func TestLimiterWithRedisSharedAcrossInstances(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	clock := newClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	newInstance := func() *ratelimit.Limiter {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		store := ratelimit.NewRedisStore(client, ratelimit.WithRedisClock(clock.Now))
		return ratelimit.NewLimiter(store, tier.DefaultTable(), ratelimit.WithClock(clock.Now))
	}
	a, b := newInstance(), newInstance()

	for i := range 10 {
		l := a
		if i%2 == 1 {
			l = b
		}
		res, err := l.Check(context.Background(), tier.ResourceSubmission, tier.Free, "203.0.113.5")
		require.NoError(t, err)
		assert.Equal(t, 9-i, res.Remaining)
	}

	res, err := b.Check(context.Background(), tier.ResourceSubmission, tier.Free, "203.0.113.5")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 60*time.Second, res.RetryAfter)
}

func TestSelectStore(t *testing.T) {
	t.Parallel()

	t.Run("connected client", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		store := ratelimit.SelectStore(client, nil, nil, nil)
		assert.IsType(t, &ratelimit.RedisStore{}, store)
	})

	t.Run("falls back on connection error", func(t *testing.T) {
		t.Parallel()
		store := ratelimit.SelectStore(nil, assert.AnError, nil, nil)
		assert.IsType(t, &ratelimit.MemoryStore{}, store)
		assert.NoError(t, ratelimit.CloseStore(context.Background(), store))
	})
}

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}
