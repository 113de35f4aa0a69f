package account

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/tier"
)

// Store persists account billing profiles. Implementations return ErrNotFound for a
// missing account and ErrCustomerNotMapped when no profile carries a customer id.
type Store interface {
	GetProfile(ctx context.Context, accountID uuid.UUID) (Profile, error)
	GetProfileByCustomerID(ctx context.Context, customerID string) (Profile, error)
	// LinkCustomer attaches a provider customer id, creating a free profile when the
	// account has none yet.
	LinkCustomer(ctx context.Context, accountID uuid.UUID, customerID string) error
	// SaveSubscription applies upd unless it is stale, in which case it returns
	// ErrStaleUpdate.
	SaveSubscription(ctx context.Context, accountID uuid.UUID, upd SubscriptionUpdate) error
}

// TierSource adapts a Store to tier.Source.
func TierSource(s Store) tier.Source {
	return tier.SourceFunc(func(ctx context.Context, accountID uuid.UUID) (tier.Tier, bool, error) {
		p, err := s.GetProfile(ctx, accountID)
		if errors.Is(err, ErrNotFound) {
			return tier.Free, false, nil
		}
		if err != nil {
			return "", false, err
		}
		return p.EffectiveTier(), true, nil
	})
}
