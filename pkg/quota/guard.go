package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/metrics"
	"github.com/dmitrymomot/formgate/pkg/tier"
)

// Guard enforces long-horizon caps before writes. Each call resolves the tier and reads
// counts fresh, so a tier change applies to the very next check.
type Guard struct {
	counter Counter
	tiers   TierResolver
	table   tier.Table
	now     func() time.Time
	log     *slog.Logger
	metrics *metrics.Recorder
}

type Option func(*Guard)

func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(g *Guard) {
		if log != nil {
			g.log = log
		}
	}
}

func WithMetrics(rec *metrics.Recorder) Option {
	return func(g *Guard) { g.metrics = rec }
}

// NewGuard panics on missing collaborators. A nil table uses tier.DefaultTable.
func NewGuard(counter Counter, tiers TierResolver, table tier.Table, opts ...Option) *Guard {
	if counter == nil {
		panic(ErrCounterRequired)
	}
	if tiers == nil {
		panic(ErrResolverRequired)
	}
	if table == nil {
		table = tier.DefaultTable()
	}
	g := &Guard{
		counter: counter,
		tiers:   tiers,
		table:   table,
		now:     time.Now,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanCreateForm allows creation while the account owns fewer forms than its tier's
// MaxForms.
func (g *Guard) CanCreateForm(ctx context.Context, accountID uuid.UUID) (Decision, error) {
	return g.CanCreateFormOnTier(ctx, accountID, g.tiers.Resolve(ctx, accountID))
}

// CanCreateFormOnTier is CanCreateForm for a caller that already resolved the tier.
func (g *Guard) CanCreateFormOnTier(ctx context.Context, accountID uuid.UUID, t tier.Tier) (Decision, error) {
	limit := g.table.Limits(t).Quotas.MaxForms

	d := Decision{Allowed: true, Resource: ResourceForms, Limit: limit, Tier: t}
	if limit == tier.Unlimited {
		return d, nil
	}

	used, err := g.counter.CountForms(ctx, accountID)
	if err != nil {
		return Decision{}, errors.Join(ErrCountFailed, fmt.Errorf("count forms: %w", err))
	}
	d.Used = used
	return g.decide(ctx, accountID, d), nil
}

// CanReceiveSubmission checks the account's monthly total across all forms and the
// per-form lifetime total. Either cap alone blocks the write; the monthly cap is
// reported first when both are hit.
func (g *Guard) CanReceiveSubmission(ctx context.Context, accountID, formID uuid.UUID) (Decision, error) {
	return g.CanReceiveSubmissionOnTier(ctx, accountID, formID, g.tiers.Resolve(ctx, accountID))
}

// CanReceiveSubmissionOnTier is CanReceiveSubmission for a caller that already resolved
// the tier.
func (g *Guard) CanReceiveSubmissionOnTier(ctx context.Context, accountID, formID uuid.UUID, t tier.Tier) (Decision, error) {
	quotas := g.table.Limits(t).Quotas

	monthly := Decision{Allowed: true, Resource: ResourceMonthlySubmissions, Limit: quotas.MaxSubmissionsPerMonth, Tier: t}
	if monthly.Limit != tier.Unlimited {
		used, err := g.counter.CountSubmissionsSince(ctx, accountID, MonthStart(g.now()))
		if err != nil {
			return Decision{}, errors.Join(ErrCountFailed, fmt.Errorf("count monthly submissions: %w", err))
		}
		monthly.Used = used
		if monthly = g.decide(ctx, accountID, monthly); !monthly.Allowed {
			return monthly, nil
		}
	}

	perForm := Decision{Allowed: true, Resource: ResourceFormSubmissions, Limit: quotas.MaxSubmissionsPerForm, Tier: t}
	if perForm.Limit == tier.Unlimited {
		return perForm, nil
	}
	used, err := g.counter.CountFormSubmissions(ctx, formID)
	if err != nil {
		return Decision{}, errors.Join(ErrCountFailed, fmt.Errorf("count form submissions: %w", err))
	}
	perForm.Used = used
	return g.decide(ctx, accountID, perForm), nil
}

// Usage returns snapshots for the form count and the current month's submissions.
func (g *Guard) Usage(ctx context.Context, accountID uuid.UUID) ([]Snapshot, tier.Tier, error) {
	t := g.tiers.Resolve(ctx, accountID)
	quotas := g.table.Limits(t).Quotas

	forms, err := g.counter.CountForms(ctx, accountID)
	if err != nil {
		return nil, t, errors.Join(ErrCountFailed, err)
	}
	start := MonthStart(g.now())
	subs, err := g.counter.CountSubmissionsSince(ctx, accountID, start)
	if err != nil {
		return nil, t, errors.Join(ErrCountFailed, err)
	}

	return []Snapshot{
		{Resource: ResourceForms, Used: forms, Limit: quotas.MaxForms},
		{Resource: ResourceMonthlySubmissions, Used: subs, Limit: quotas.MaxSubmissionsPerMonth, WindowStart: start},
	}, t, nil
}

// ViewCap is how many submissions per form the account may see. Stored rows beyond
// the cap are kept, just hidden.
func (g *Guard) ViewCap(ctx context.Context, accountID uuid.UUID) int64 {
	return g.ViewCapOnTier(g.tiers.Resolve(ctx, accountID))
}

// ViewCapOnTier is the per-form view cap of t.
func (g *Guard) ViewCapOnTier(t tier.Tier) int64 {
	return g.table.Limits(t).Quotas.MaxSubmissionsPerForm
}

func (g *Guard) decide(ctx context.Context, accountID uuid.UUID, d Decision) Decision {
	if !exceeded(d.Used, d.Limit) {
		return d
	}
	d.Allowed = false
	d.Reason = reason(d)
	g.metrics.QuotaDenied(string(d.Resource), string(d.Tier))
	g.log.InfoContext(ctx, "quota exceeded",
		logger.Component("quota"),
		logger.AccountID(accountID),
		logger.Resource(string(d.Resource)),
		logger.Tier(string(d.Tier)),
		slog.Int64("used", d.Used),
		slog.Int64("limit", d.Limit),
	)
	return d
}

func reason(d Decision) string {
	plan := d.Tier.Title()
	switch d.Resource {
	case ResourceForms:
		return fmt.Sprintf("You have reached the limit of %d forms on the %s plan. Upgrade to create more forms.", d.Limit, plan)
	case ResourceMonthlySubmissions:
		return fmt.Sprintf("Your account has reached its limit of %d submissions this month on the %s plan. Upgrade to accept more submissions.", d.Limit, plan)
	case ResourceFormSubmissions:
		return fmt.Sprintf("This form has reached its limit of %d submissions on the %s plan. Upgrade to accept more submissions.", d.Limit, plan)
	default:
		return fmt.Sprintf("Quota of %d reached on the %s plan.", d.Limit, plan)
	}
}
