package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/formgate/pkg/ledger"
	"github.com/dmitrymomot/formgate/pkg/pg"
)

// Ledger is a ledger.Ledger on the webhook_ledger table. Expired rows are treated as
// absent and reclaimed in place; PurgeExpired deletes them for good.
type Ledger struct {
	pool *pgxpool.Pool
	cfg  ledger.Config
	now  func() time.Time
}

var _ ledger.Ledger = (*Ledger)(nil)

func NewLedger(pool *pgxpool.Pool, cfg ledger.Config) *Ledger {
	return &Ledger{pool: pool, cfg: cfg.WithDefaults(), now: time.Now}
}

// Claim inserts a processing row, or takes over an expired one, in one statement.
func (l *Ledger) Claim(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, ledger.ErrEmptyEventID
	}
	now := l.now()

	var id string
	err := l.pool.QueryRow(ctx, `
		INSERT INTO webhook_ledger (event_id, status, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO UPDATE
			SET status = EXCLUDED.status, expires_at = EXCLUDED.expires_at
			WHERE webhook_ledger.expires_at <= $4
		RETURNING event_id`,
		eventID, string(ledger.StatusProcessing), now.Add(l.cfg.Lease), now,
	).Scan(&id)
	if pg.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("db: claim event: %w", err)
	}
	return true, nil
}

func (l *Ledger) Commit(ctx context.Context, eventID string) error {
	if eventID == "" {
		return ledger.ErrEmptyEventID
	}
	now := l.now()
	tag, err := l.pool.Exec(ctx, `
		UPDATE webhook_ledger SET status = $2, expires_at = $3
		WHERE event_id = $1 AND status = $4 AND expires_at > $5`,
		eventID, string(ledger.StatusProcessed), now.Add(l.cfg.TTL), string(ledger.StatusProcessing), now,
	)
	if err != nil {
		return fmt.Errorf("db: commit event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotClaimed
	}
	return nil
}

func (l *Ledger) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return ledger.ErrEmptyEventID
	}
	tag, err := l.pool.Exec(ctx, `
		DELETE FROM webhook_ledger
		WHERE event_id = $1 AND status = $2 AND expires_at > $3`,
		eventID, string(ledger.StatusProcessing), l.now(),
	)
	if err != nil {
		return fmt.Errorf("db: release event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotClaimed
	}
	return nil
}

func (l *Ledger) Status(ctx context.Context, eventID string) (ledger.Status, error) {
	if eventID == "" {
		return "", ledger.ErrEmptyEventID
	}
	var (
		status    string
		expiresAt time.Time
	)
	err := l.pool.QueryRow(ctx,
		`SELECT status, expires_at FROM webhook_ledger WHERE event_id = $1`, eventID,
	).Scan(&status, &expiresAt)
	if pg.IsNotFoundError(err) {
		return ledger.StatusAbsent, nil
	}
	if err != nil {
		return "", fmt.Errorf("db: event status: %w", err)
	}
	if !l.now().Before(expiresAt) {
		return ledger.StatusAbsent, nil
	}
	return ledger.Status(status), nil
}

// PurgeExpired deletes expired rows and reports how many were removed.
func (l *Ledger) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := l.pool.Exec(ctx, `DELETE FROM webhook_ledger WHERE expires_at <= $1`, l.now())
	if err != nil {
		return 0, fmt.Errorf("db: purge ledger: %w", err)
	}
	return tag.RowsAffected(), nil
}
