package tier

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/logger"
)

// Source looks up the tier stored on an account profile.
// found is false when the account has no profile yet.
type Source interface {
	LookupTier(ctx context.Context, accountID uuid.UUID) (t Tier, found bool, err error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, accountID uuid.UUID) (Tier, bool, error)

func (f SourceFunc) LookupTier(ctx context.Context, accountID uuid.UUID) (Tier, bool, error) {
	return f(ctx, accountID)
}

// Resolver maps account ids to tiers.
type Resolver struct {
	src Source
	log *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used to report degraded lookups.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver creates a Resolver backed by src. Panics if src is nil.
func NewResolver(src Source, opts ...ResolverOption) *Resolver {
	if src == nil {
		panic(ErrSourceRequired)
	}
	r := &Resolver{src: src, log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the account's current tier. Accounts without a profile are on the
// free tier. Lookup failures and unrecognised stored values also resolve to free.
func (r *Resolver) Resolve(ctx context.Context, accountID uuid.UUID) Tier {
	t, found, err := r.src.LookupTier(ctx, accountID)
	if err != nil {
		r.log.WarnContext(ctx, "tier lookup failed, treating account as free",
			logger.Component("tier"),
			logger.AccountID(accountID),
			logger.Error(err),
		)
		return Free
	}
	if !found {
		return Free
	}
	if !t.Valid() {
		r.log.WarnContext(ctx, "account profile has unknown tier, treating account as free",
			logger.Component("tier"),
			logger.AccountID(accountID),
			logger.Tier(string(t)),
		)
		return Free
	}
	return t
}
