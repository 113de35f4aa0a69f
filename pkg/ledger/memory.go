package ledger

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	status    Status
	expiresAt time.Time
}

// MemoryLedger keeps entries in process memory. Suitable for a single instance and
// for tests.
type MemoryLedger struct {
	mu      sync.Mutex
	cfg     Config
	entries map[string]memoryEntry
	now     func() time.Time
}

type MemoryOption func(*MemoryLedger)

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLedger) {
		if now != nil {
			l.now = now
		}
	}
}

func NewMemoryLedger(cfg Config, opts ...MemoryOption) *MemoryLedger {
	l := &MemoryLedger{
		cfg:     cfg.WithDefaults(),
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryLedger) Claim(_ context.Context, eventID string) (bool, error) {
	if err := validateID(eventID); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[eventID]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	l.entries[eventID] = memoryEntry{status: StatusProcessing, expiresAt: now.Add(l.cfg.Lease)}
	return true, nil
}

func (l *MemoryLedger) Commit(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[eventID]
	if !ok || e.status != StatusProcessing || !now.Before(e.expiresAt) {
		return ErrNotClaimed
	}
	l.entries[eventID] = memoryEntry{status: StatusProcessed, expiresAt: now.Add(l.cfg.TTL)}
	return nil
}

func (l *MemoryLedger) Release(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[eventID]
	if !ok || e.status != StatusProcessing || !l.now().Before(e.expiresAt) {
		return ErrNotClaimed
	}
	delete(l.entries, eventID)
	return nil
}

func (l *MemoryLedger) Status(_ context.Context, eventID string) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[eventID]
	if !ok || !l.now().Before(e.expiresAt) {
		return StatusAbsent, nil
	}
	return e.status, nil
}

// Purge drops expired entries and returns how many were removed.
func (l *MemoryLedger) Purge(context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var n int64
	for id, e := range l.entries {
		if !now.Before(e.expiresAt) {
			delete(l.entries, id)
			n++
		}
	}
	return n, nil
}
