package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/quota"
	"github.com/dmitrymomot/formgate/pkg/ratelimit"
	"github.com/dmitrymomot/formgate/pkg/tier"
)

const (
	maxNameLength = 120
	maxPerPage    = 100
)

// Service gates every business write: rate limit first, then quota, then the write.
type Service struct {
	repo    Repository
	limiter *ratelimit.Limiter
	guard   *quota.Guard
	tiers   quota.TierResolver
	log     *slog.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, limiter *ratelimit.Limiter, guard *quota.Guard, tiers quota.TierResolver, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		limiter: limiter,
		guard:   guard,
		tiers:   tiers,
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("intake"))
	return s
}

// Submit accepts a public submission for formID. The caller's IP is the rate limit
// identifier and the form owner's tier selects the limits.
func (s *Service) Submit(ctx context.Context, formID uuid.UUID, clientIP string, payload []byte) (Receipt, error) {
	body, err := normalizePayload(payload)
	if err != nil {
		return Receipt{}, err
	}

	form, err := s.repo.GetForm(ctx, formID)
	if err != nil {
		return Receipt{}, err
	}
	t := s.tiers.Resolve(ctx, form.AccountID)

	rl, err := s.checkRate(ctx, tier.ResourceSubmission, t, clientIP)
	if err != nil {
		return Receipt{RateLimit: rl}, err
	}

	dec, err := s.guard.CanReceiveSubmissionOnTier(ctx, form.AccountID, form.ID, t)
	if err != nil {
		return Receipt{RateLimit: rl}, err
	}
	if !dec.Allowed {
		return Receipt{RateLimit: rl}, &QuotaError{Decision: dec}
	}

	sub := Submission{
		ID:        uuid.New(),
		FormID:    form.ID,
		Payload:   body,
		ClientIP:  clientIP,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.InsertSubmission(ctx, sub); err != nil {
		return Receipt{RateLimit: rl}, fmt.Errorf("intake: store submission: %w", err)
	}

	s.log.DebugContext(ctx, "submission accepted", logger.FormID(form.ID), logger.AccountID(form.AccountID))
	return Receipt{Submission: sub, RateLimit: rl}, nil
}

// CreateForm creates a form for accountID, limited per account.
func (s *Service) CreateForm(ctx context.Context, accountID uuid.UUID, name string) (Form, ratelimit.Result, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return Form{}, ratelimit.Result{}, ErrInvalidName
	}

	t := s.tiers.Resolve(ctx, accountID)
	rl, err := s.checkRate(ctx, tier.ResourceFormCreation, t, accountID.String())
	if err != nil {
		return Form{}, rl, err
	}

	dec, err := s.guard.CanCreateFormOnTier(ctx, accountID, t)
	if err != nil {
		return Form{}, rl, err
	}
	if !dec.Allowed {
		return Form{}, rl, &QuotaError{Decision: dec}
	}

	f := Form{ID: uuid.New(), AccountID: accountID, Name: name, CreatedAt: s.now().UTC()}
	if err := s.repo.InsertForm(ctx, f); err != nil {
		return Form{}, rl, fmt.Errorf("intake: store form: %w", err)
	}
	s.log.InfoContext(ctx, "form created", logger.FormID(f.ID), logger.AccountID(accountID), logger.Tier(t.String()))
	return f, rl, nil
}

// ListSubmissions pages through a form's submissions, hiding rows beyond the
// account's view cap. API rate limiting is applied by the HTTP layer.
func (s *Service) ListSubmissions(ctx context.Context, accountID, formID uuid.UUID, page, perPage int) (Page, error) {
	form, err := s.repo.GetForm(ctx, formID)
	if err != nil {
		return Page{}, err
	}
	if form.AccountID != accountID {
		return Page{}, ErrForbidden
	}

	total, err := s.repo.CountFormSubmissions(ctx, formID)
	if err != nil {
		return Page{}, fmt.Errorf("intake: count submissions: %w", err)
	}
	page = max(page, 1)
	if perPage <= 0 {
		perPage = quota.DefaultPerPage
	}
	perPage = min(perPage, maxPerPage)
	w := quota.VisibleWindow(total, s.guard.ViewCap(ctx, accountID), page, perPage)

	out := Page{Submissions: []Submission{}, Page: page, PerPage: perPage, Window: w}
	if w.Limit == 0 {
		return out, nil
	}
	subs, err := s.repo.ListSubmissions(ctx, formID, w.Visible, w.Offset, w.Limit)
	if err != nil {
		return Page{}, fmt.Errorf("intake: list submissions: %w", err)
	}
	out.Submissions = subs
	return out, nil
}

// Usage reports the account's quota snapshots and tier.
func (s *Service) Usage(ctx context.Context, accountID uuid.UUID) (Usage, error) {
	snaps, t, err := s.guard.Usage(ctx, accountID)
	if err != nil {
		return Usage{}, err
	}
	return Usage{Tier: t.String(), Quotas: snaps}, nil
}

func (s *Service) checkRate(ctx context.Context, res tier.Resource, t tier.Tier, identifier string) (ratelimit.Result, error) {
	rl, err := s.limiter.Check(ctx, res, t, identifier)
	if err != nil {
		return rl, fmt.Errorf("intake: rate limit: %w", err)
	}
	if !rl.Allowed {
		return rl, &RateLimitError{Result: rl}
	}
	return rl, nil
}

func normalizePayload(payload []byte) (json.RawMessage, error) {
	if len(payload) > MaxPayloadBytes {
		return nil, ErrPayloadTooBig
	}
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil || len(fields) == 0 {
		return nil, ErrInvalidPayload
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	return buf.Bytes(), nil
}
