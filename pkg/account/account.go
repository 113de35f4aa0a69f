package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/tier"
)

// Status is the billing state of an account's subscription.
type Status string

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusPastDue  Status = "past_due"
	StatusPaused   Status = "paused"
	StatusCanceled Status = "canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusPastDue, StatusPaused, StatusCanceled:
		return true
	}
	return false
}

// ParseStatus accepts provider spellings, including the British "cancelled".
func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "cancelled" {
		v = string(StatusCanceled)
	}
	st := Status(v)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Profile is the billing view of an account.
type Profile struct {
	AccountID      uuid.UUID
	Tier           tier.Tier
	Status         Status
	CustomerID     string // payment provider customer id, empty until first checkout
	SubscriptionID string
	PriceID        string
	// LastEventAt is when the newest applied billing event occurred at the provider.
	LastEventAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EffectiveTier is the tier limits are enforced at. Canceled and paused
// subscriptions fall back to free; past-due ones keep their tier while the provider
// retries the charge.
func (p Profile) EffectiveTier() tier.Tier {
	switch p.Status {
	case StatusCanceled, StatusPaused:
		return tier.Free
	}
	if !p.Tier.Valid() {
		return tier.Free
	}
	return p.Tier
}

// SubscriptionUpdate is applied by billing handlers. Empty string fields leave the
// stored value unchanged. A non-zero OccurredAt older than the profile's LastEventAt
// makes the update stale: stores reject it with ErrStaleUpdate and change nothing.
type SubscriptionUpdate struct {
	SubscriptionID string
	PriceID        string
	Tier           tier.Tier
	Status         Status
	OccurredAt     time.Time
}

// StaleFor reports whether u was emitted before the last event applied to p.
func (u SubscriptionUpdate) StaleFor(p Profile) bool {
	return !u.OccurredAt.IsZero() && !p.LastEventAt.IsZero() && u.OccurredAt.Before(p.LastEventAt)
}
