package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/formgate/pkg/pg"
	"github.com/dmitrymomot/formgate/pkg/quota"
	"github.com/dmitrymomot/formgate/svc/intake"
)

// Repository is the Postgres store for forms, submissions and usage counts.
type Repository struct {
	pool *pgxpool.Pool
}

var (
	_ intake.Repository = (*Repository)(nil)
	_ quota.Counter     = (*Repository)(nil)
)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetForm(ctx context.Context, formID uuid.UUID) (intake.Form, error) {
	var f intake.Form
	err := r.pool.QueryRow(ctx,
		`SELECT id, account_id, name, created_at FROM forms WHERE id = $1`, formID,
	).Scan(&f.ID, &f.AccountID, &f.Name, &f.CreatedAt)
	if pg.IsNotFoundError(err) {
		return intake.Form{}, intake.ErrFormNotFound
	}
	if err != nil {
		return intake.Form{}, fmt.Errorf("db: get form: %w", err)
	}
	return f, nil
}

func (r *Repository) InsertForm(ctx context.Context, f intake.Form) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO forms (id, account_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		f.ID, f.AccountID, f.Name, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("db: insert form: %w", err)
	}
	return nil
}

func (r *Repository) InsertSubmission(ctx context.Context, s intake.Submission) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO submissions (id, form_id, payload, client_ip, created_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.FormID, []byte(s.Payload), s.ClientIP, s.CreatedAt,
	)
	if pg.IsForeignKeyViolationError(err) {
		return intake.ErrFormNotFound
	}
	if err != nil {
		return fmt.Errorf("db: insert submission: %w", err)
	}
	return nil
}

func (r *Repository) CountFormSubmissions(ctx context.Context, formID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM submissions WHERE form_id = $1`, formID)
}

func (r *Repository) CountForms(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM forms WHERE account_id = $1`, accountID)
}

func (r *Repository) CountSubmissionsSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int64, error) {
	return r.count(ctx, `
		SELECT count(*) FROM submissions s
		JOIN forms f ON f.id = s.form_id
		WHERE f.account_id = $1 AND s.created_at >= $2`,
		accountID, since,
	)
}

// ListSubmissions takes the oldest visible rows by insertion and pages through them
// newest first.
func (r *Repository) ListSubmissions(ctx context.Context, formID uuid.UUID, visible, offset, limit int64) ([]intake.Submission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, form_id, payload, client_ip, created_at FROM (
			SELECT id, seq, form_id, payload, client_ip, created_at
			FROM submissions WHERE form_id = $1
			ORDER BY seq ASC
			LIMIT $2
		) visible
		ORDER BY seq DESC
		OFFSET $3 LIMIT $4`,
		formID, visible, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("db: list submissions: %w", err)
	}

	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (intake.Submission, error) {
		var s intake.Submission
		var payload []byte
		err := row.Scan(&s.ID, &s.FormID, &payload, &s.ClientIP, &s.CreatedAt)
		s.Payload = payload
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("db: scan submissions: %w", err)
	}
	return subs, nil
}

func (r *Repository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db: count: %w", err)
	}
	return n, nil
}
