package quota

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/tier"
)

// Resource names a durable quota.
type Resource string

const (
	ResourceForms              Resource = "forms"
	ResourceMonthlySubmissions Resource = "monthly_submissions"
	ResourceFormSubmissions    Resource = "form_submissions"
)

// Counter reads aggregate usage from durable storage. Quotas never consult caches.
type Counter interface {
	CountForms(ctx context.Context, accountID uuid.UUID) (int64, error)
	// CountSubmissionsSince sums submissions across every form owned by the account.
	CountSubmissionsSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int64, error)
	CountFormSubmissions(ctx context.Context, formID uuid.UUID) (int64, error)
}

// TierResolver yields the tier an account is currently billed at.
type TierResolver interface {
	Resolve(ctx context.Context, accountID uuid.UUID) tier.Tier
}

// Decision is the outcome of a quota check. Reason is set only when denied and is
// meant to be shown to the account owner.
type Decision struct {
	Allowed  bool      `json:"allowed"`
	Reason   string    `json:"reason,omitempty"`
	Resource Resource  `json:"resource"`
	Limit    int64     `json:"limit"`
	Used     int64     `json:"used"`
	Tier     tier.Tier `json:"tier"`
}

// Snapshot is derived usage for one quota.
type Snapshot struct {
	Resource    Resource  `json:"resource"`
	Used        int64     `json:"used"`
	Limit       int64     `json:"limit"`
	WindowStart time.Time `json:"windowStart,omitzero"`
}

// Unlimited reports whether the snapshot has no cap.
func (s Snapshot) Unlimited() bool { return s.Limit == tier.Unlimited }

// MonthStart returns the first instant of now's calendar month in UTC.
func MonthStart(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// exceeded applies the limit rule: unlimited never trips, otherwise used >= limit does.
func exceeded(used, limit int64) bool {
	return limit != tier.Unlimited && used >= limit
}
