package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/formgate/pkg/account"
	"github.com/dmitrymomot/formgate/pkg/pg"
	"github.com/dmitrymomot/formgate/pkg/tier"
)

// AccountStore persists billing profiles in the accounts table.
type AccountStore struct {
	pool *pgxpool.Pool
}

var _ account.Store = (*AccountStore)(nil)

func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

const profileColumns = `id, tier, status, COALESCE(customer_id, ''), subscription_id, price_id, last_event_at, created_at, updated_at`

func (s *AccountStore) GetProfile(ctx context.Context, accountID uuid.UUID) (account.Profile, error) {
	p, err := s.scanProfile(ctx, `SELECT `+profileColumns+` FROM accounts WHERE id = $1`, accountID)
	if pg.IsNotFoundError(err) {
		return account.Profile{}, account.ErrNotFound
	}
	return p, err
}

func (s *AccountStore) GetProfileByCustomerID(ctx context.Context, customerID string) (account.Profile, error) {
	p, err := s.scanProfile(ctx, `SELECT `+profileColumns+` FROM accounts WHERE customer_id = $1`, customerID)
	if pg.IsNotFoundError(err) {
		return account.Profile{}, account.ErrCustomerNotMapped
	}
	return p, err
}

func (s *AccountStore) LinkCustomer(ctx context.Context, accountID uuid.UUID, customerID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, tier, status, customer_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET customer_id = EXCLUDED.customer_id, updated_at = now()`,
		accountID, string(tier.Free), string(account.StatusActive), customerID,
	)
	if pg.IsDuplicateKeyError(err) {
		return account.ErrCustomerConflict
	}
	if err != nil {
		return fmt.Errorf("db: link customer: %w", err)
	}
	return nil
}

// SaveSubscription leaves columns unchanged for empty update fields. An update dated
// before last_event_at matches no row and is reported as account.ErrStaleUpdate.
func (s *AccountStore) SaveSubscription(ctx context.Context, accountID uuid.UUID, upd account.SubscriptionUpdate) error {
	var occurredAt *time.Time
	if !upd.OccurredAt.IsZero() {
		occurredAt = &upd.OccurredAt
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET
			subscription_id = COALESCE(NULLIF($2, ''), subscription_id),
			price_id        = COALESCE(NULLIF($3, ''), price_id),
			tier            = COALESCE(NULLIF($4, ''), tier),
			status          = COALESCE(NULLIF($5, ''), status),
			last_event_at   = GREATEST(last_event_at, $6::timestamptz),
			updated_at      = now()
		WHERE id = $1
			AND ($6::timestamptz IS NULL OR last_event_at IS NULL OR last_event_at <= $6::timestamptz)`,
		accountID, upd.SubscriptionID, upd.PriceID, string(upd.Tier), string(upd.Status), occurredAt,
	)
	if err != nil {
		return fmt.Errorf("db: save subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
		return fmt.Errorf("db: save subscription: %w", err)
	}
	if !exists {
		return account.ErrNotFound
	}
	return account.ErrStaleUpdate
}

func (s *AccountStore) scanProfile(ctx context.Context, query string, arg any) (account.Profile, error) {
	var (
		p            account.Profile
		tierName     string
		statusString string
		lastEventAt  *time.Time
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&p.AccountID, &tierName, &statusString, &p.CustomerID,
		&p.SubscriptionID, &p.PriceID, &lastEventAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return account.Profile{}, err
		}
		return account.Profile{}, fmt.Errorf("db: scan profile: %w", err)
	}
	// Unknown stored values degrade to free via Profile.EffectiveTier.
	p.Tier = tier.Tier(tierName)
	p.Status = account.Status(statusString)
	if lastEventAt != nil {
		p.LastEventAt = *lastEventAt
	}
	return p, nil
}
