package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/metrics"
	"github.com/dmitrymomot/formgate/pkg/tier"
)

// Result is the outcome of one Check.
type Result struct {
	Resource  tier.Resource
	Tier      tier.Tier
	Allowed   bool
	Limit     int
	Remaining int
	Window    time.Duration
	ResetAt   time.Time
	// RetryAfter is whole seconds until the window resets, set only when denied.
	RetryAfter time.Duration
	// Degraded marks a fail-open result produced while the counter store was failing.
	Degraded bool
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
func (r Result) RetryAfterSeconds() int64 {
	return int64(math.Ceil(r.RetryAfter.Seconds()))
}

// Limiter enforces fixed-window limits taken from a tier table.
type Limiter struct {
	store   Store
	table   tier.Table
	now     func() time.Time
	log     *slog.Logger
	metrics *metrics.Recorder
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

func WithClock(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

func WithLogger(log *slog.Logger) LimiterOption {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

func WithMetrics(rec *metrics.Recorder) LimiterOption {
	return func(l *Limiter) { l.metrics = rec }
}

// NewLimiter panics when store is nil. A nil table uses tier.DefaultTable.
func NewLimiter(store Store, table tier.Table, opts ...LimiterOption) *Limiter {
	if store == nil {
		panic(ErrStoreRequired)
	}
	if table == nil {
		table = tier.DefaultTable()
	}
	l := &Limiter{
		store: store,
		table: table,
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request for identifier against the tier's limit for res. The call
// always increments, so the request that trips the limit is counted too.
//
// Store failures never surface: the request is allowed, logged at WARN and the result
// is flagged Degraded. Errors are returned only for an unknown resource or an empty
// identifier.
func (l *Limiter) Check(ctx context.Context, res tier.Resource, t tier.Tier, identifier string) (Result, error) {
	if identifier == "" {
		return Result{}, ErrIdentifierEmpty
	}
	if !t.Valid() {
		t = tier.Free
	}
	rl, err := l.table.RateLimit(t, res)
	if err != nil {
		return Result{}, err
	}

	now := l.now()
	key := Key(res, t, identifier, WindowIndex(now, rl.Window))

	start := time.Now()
	entry, err := l.store.Increment(ctx, key, rl.Window)
	took := time.Since(start)

	if err != nil {
		l.log.WarnContext(ctx, "rate limit store unavailable, failing open",
			logger.Component("ratelimit"),
			logger.Resource(string(res)),
			logger.Tier(string(t)),
			logger.Error(err),
		)
		l.metrics.RateLimitFailOpen(string(res))
		return Result{
			Resource:  res,
			Tier:      t,
			Allowed:   true,
			Limit:     rl.Limit,
			Remaining: rl.Limit,
			Window:    rl.Window,
			ResetAt:   WindowEnd(now, rl.Window),
			Degraded:  true,
		}, nil
	}

	result := evaluate(rl, entry, now)
	result.Resource = res
	result.Tier = t
	l.metrics.RateLimitCheck(string(res), string(t), result.Allowed, took)
	return result, nil
}

func evaluate(rl tier.RateLimit, e Entry, now time.Time) Result {
	r := Result{
		Allowed:   e.Count <= int64(rl.Limit),
		Limit:     rl.Limit,
		Remaining: int(max(0, int64(rl.Limit)-e.Count)),
		Window:    rl.Window,
		ResetAt:   e.ResetAt,
	}
	if !r.Allowed {
		secs := math.Ceil(e.ResetAt.Sub(now).Seconds())
		r.RetryAfter = time.Duration(max(secs, 1)) * time.Second
	}
	return r
}
