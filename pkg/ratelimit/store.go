package ratelimit

import (
	"context"
	"time"
)

// Entry is the state of one window counter after an increment.
type Entry struct {
	Count   int64
	ResetAt time.Time
}

// Store increments window counters. Implementations must make Increment atomic per key
// so concurrent callers observe a monotonically increasing count within a window.
type Store interface {
	// Increment adds one to key and returns the new count together with the end of
	// the fixed window of length window that contains the current instant.
	Increment(ctx context.Context, key string, window time.Duration) (Entry, error)
}
