package intake

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/quota"
	"github.com/dmitrymomot/formgate/pkg/ratelimit"
)

// MaxPayloadBytes caps a stored submission payload.
const MaxPayloadBytes = 64 << 10

// Form is a submission endpoint owned by an account.
type Form struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"accountId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission is one accepted payload.
type Submission struct {
	ID        uuid.UUID       `json:"id"`
	FormID    uuid.UUID       `json:"formId"`
	Payload   json.RawMessage `json:"payload"`
	ClientIP  string          `json:"-"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Repository persists forms and submissions. GetForm returns ErrFormNotFound for an
// unknown id.
type Repository interface {
	GetForm(ctx context.Context, formID uuid.UUID) (Form, error)
	InsertForm(ctx context.Context, f Form) error
	InsertSubmission(ctx context.Context, s Submission) error
	CountFormSubmissions(ctx context.Context, formID uuid.UUID) (int64, error)
	// ListSubmissions returns rows from the oldest visible submissions of the form,
	// newest first, skipping offset and returning at most limit.
	ListSubmissions(ctx context.Context, formID uuid.UUID, visible, offset, limit int64) ([]Submission, error)
}

// Receipt is the result of an accepted submission.
type Receipt struct {
	Submission Submission
	RateLimit  ratelimit.Result
}

// Page is one page of submissions clamped to the account's view cap.
type Page struct {
	Submissions []Submission `json:"submissions"`
	Page        int          `json:"page"`
	PerPage     int          `json:"perPage"`
	quota.Window
}

// Usage is the account usage report.
type Usage struct {
	Tier   string           `json:"tier"`
	Quotas []quota.Snapshot `json:"quotas"`
}
