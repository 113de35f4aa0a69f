// Package ratelimit implements fixed-window rate limiting keyed by resource, tier,
// identifier and window index.
//
// The window index is floor(now / window), so a burst of up to twice the limit is
// possible across a window boundary. Counters live in a Store: RedisStore is the
// authoritative distributed implementation, MemoryStore the per-process fallback that
// SelectStore installs when Redis is absent or unreachable at startup.
//
// Limiter.Check fails open. If the store errors at request time the request is
// allowed and the result is marked Degraded.
//
//	store := ratelimit.SelectStore(rdb, err, log, rec)
//	limiter := ratelimit.NewLimiter(store, table, ratelimit.WithLogger(log))
//
//	res, err := limiter.Check(ctx, tier.ResourceSubmission, tier.Free, ip)
//	if err == nil && !res.Allowed {
//		ratelimit.WriteExceeded(w, res)
//	}
package ratelimit
