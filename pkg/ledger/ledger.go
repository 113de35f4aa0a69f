package ledger

import (
	"context"
	"time"
)

// Status is the processing state of an event id.
type Status string

const (
	StatusAbsent     Status = "absent"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
)

const (
	// DefaultTTL is how long a processed entry is retained for deduplication.
	DefaultTTL = 24 * time.Hour
	// DefaultLease bounds how long a claim may stay in processing before it becomes
	// reclaimable, so a crashed worker does not block redelivery for a whole TTL.
	DefaultLease = 10 * time.Minute
)

// Ledger records which external event ids have been claimed and processed.
//
// Valid transitions are absent -> processing (Claim), processing -> processed
// (Commit) and processing -> absent (Release). Claim is a single atomic
// set-if-absent in every implementation.
type Ledger interface {
	// Claim returns true when the caller is the first to claim eventID.
	Claim(ctx context.Context, eventID string) (bool, error)
	// Commit marks a claimed event processed. Returns ErrNotClaimed when eventID is
	// not in processing.
	Commit(ctx context.Context, eventID string) error
	// Release drops a claim so a redelivery can claim it again. Returns
	// ErrNotClaimed when eventID is not in processing.
	Release(ctx context.Context, eventID string) error
	Status(ctx context.Context, eventID string) (Status, error)
}

// Config holds retention settings shared by all backends.
type Config struct {
	TTL   time.Duration `env:"LEDGER_TTL" envDefault:"24h"`
	Lease time.Duration `env:"LEDGER_LEASE" envDefault:"10m"`
}

// WithDefaults fills unset durations and clamps the lease to the TTL.
func (c Config) WithDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Lease <= 0 || c.Lease > c.TTL {
		c.Lease = min(DefaultLease, c.TTL)
	}
	return c
}

func validateID(eventID string) error {
	if eventID == "" {
		return ErrEmptyEventID
	}
	return nil
}
