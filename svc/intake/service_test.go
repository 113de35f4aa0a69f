package intake_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formgate/pkg/account"
	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/quota"
	"github.com/dmitrymomot/formgate/pkg/ratelimit"
	"github.com/dmitrymomot/formgate/pkg/tier"
	"github.com/dmitrymomot/formgate/svc/intake"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *intake.Service
	repo     *intake.MemoryRepository
	accounts *account.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	log := logger.Nop()

	repo := intake.NewMemoryRepository()
	accounts := account.NewMemoryStore()
	tiers := tier.NewResolver(account.TierSource(accounts), tier.WithLogger(log))
	limiter := ratelimit.NewLimiter(
		ratelimit.NewMemoryStore(ratelimit.WithMemoryClock(clock)),
		tier.DefaultTable(),
		ratelimit.WithClock(clock),
		ratelimit.WithLogger(log),
	)
	guard := quota.NewGuard(repo, tiers, tier.DefaultTable(), quota.WithClock(clock), quota.WithLogger(log))

	return &fixture{
		svc:      intake.NewService(repo, limiter, guard, tiers, intake.WithClock(clock), intake.WithLogger(log)),
		repo:     repo,
		accounts: accounts,
	}
}

func (f *fixture) form(t *testing.T, owner uuid.UUID) intake.Form {
	t.Helper()
	form := intake.Form{ID: uuid.New(), AccountID: owner, Name: "Contact", CreatedAt: fixedNow}
	require.NoError(t, f.repo.InsertForm(context.Background(), form))
	return form
}

func (f *fixture) seed(t *testing.T, formID uuid.UUID, n int) {
	t.Helper()
	for i := range n {
		require.NoError(t, f.repo.InsertSubmission(context.Background(), intake.Submission{
			ID:        uuid.New(),
			FormID:    formID,
			Payload:   []byte(fmt.Sprintf(`{"n":%d}`, i)),
			CreatedAt: fixedNow.Add(-time.Duration(n-i) * time.Minute),
		}))
	}
}

func TestSubmit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("accepts and reports rate limit", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		form := f.form(t, uuid.New())

		rcpt, err := f.svc.Submit(ctx, form.ID, "203.0.113.5", []byte(`{ "email": "a@example.com" }`))
		require.NoError(t, err)
		assert.Equal(t, form.ID, rcpt.Submission.FormID)
		assert.JSONEq(t, `{"email":"a@example.com"}`, string(rcpt.Submission.Payload))
		assert.True(t, rcpt.RateLimit.Allowed)
		assert.Equal(t, 9, rcpt.RateLimit.Remaining)

		n, err := f.repo.CountFormSubmissions(ctx, form.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("unknown form", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.Submit(ctx, uuid.New(), "203.0.113.5", []byte(`{"a":1}`))
		assert.ErrorIs(t, err, intake.ErrFormNotFound)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		form := f.form(t, uuid.New())

		for _, body := range []string{``, `[]`, `{}`, `"text"`, `{broken`} {
			_, err := f.svc.Submit(ctx, form.ID, "203.0.113.5", []byte(body))
			assert.ErrorIs(t, err, intake.ErrInvalidPayload, body)
		}
	})

	t.Run("rate limited per ip", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		form := f.form(t, uuid.New())

		for range 10 {
			_, err := f.svc.Submit(ctx, form.ID, "203.0.113.5", []byte(`{"a":1}`))
			require.NoError(t, err)
		}
		rcpt, err := f.svc.Submit(ctx, form.ID, "203.0.113.5", []byte(`{"a":1}`))
		var rlErr *intake.RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.False(t, rlErr.Result.Allowed)
		assert.Positive(t, rlErr.Result.RetryAfterSeconds())
		assert.False(t, rcpt.RateLimit.Allowed)

		_, err = f.svc.Submit(ctx, form.ID, "198.51.100.7", []byte(`{"a":1}`))
		assert.NoError(t, err)

		n, _ := f.repo.CountFormSubmissions(ctx, form.ID)
		assert.Equal(t, int64(11), n, "rejected submission is not stored")
	})

	t.Run("per form quota then upgrade", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		owner := uuid.New()
		form := f.form(t, owner)
		f.seed(t, form.ID, 50)

		_, err := f.svc.Submit(ctx, form.ID, "203.0.113.5", []byte(`{"a":1}`))
		var qErr *intake.QuotaError
		require.ErrorAs(t, err, &qErr)
		assert.Equal(t, quota.ResourceFormSubmissions, qErr.Decision.Resource)
		assert.Contains(t, qErr.Decision.Reason, "50")

		f.accounts.Put(account.Profile{AccountID: owner, Tier: tier.Starter, Status: account.StatusActive})
		_, err = f.svc.Submit(ctx, form.ID, "203.0.113.5", []byte(`{"a":1}`))
		assert.NoError(t, err)
	})
}

func TestCreateForm(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("free plan form cap", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		owner := uuid.New()

		for i := range 3 {
			form, rl, err := f.svc.CreateForm(ctx, owner, fmt.Sprintf("  Form   %d ", i))
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("Form %d", i), form.Name)
			assert.Equal(t, 4-i, rl.Remaining)
		}

		_, _, err := f.svc.CreateForm(ctx, owner, "One more")
		var qErr *intake.QuotaError
		require.ErrorAs(t, err, &qErr)
		assert.Equal(t, quota.ResourceForms, qErr.Decision.Resource)
		assert.Equal(t, int64(3), qErr.Decision.Limit)
		assert.Contains(t, qErr.Decision.Reason, "Free plan")
	})

	t.Run("rate limited per account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		owner := uuid.New()
		f.accounts.Put(account.Profile{AccountID: owner, Tier: tier.Pro, Status: account.StatusActive})

		for range 50 {
			_, _, err := f.svc.CreateForm(ctx, owner, "Burst")
			require.NoError(t, err)
		}
		_, rl, err := f.svc.CreateForm(ctx, owner, "Burst")
		var rlErr *intake.RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, tier.ResourceFormCreation, rl.Resource)
	})

	t.Run("invalid name", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, _, err := f.svc.CreateForm(ctx, uuid.New(), "   ")
		assert.ErrorIs(t, err, intake.ErrInvalidName)
	})
}

func TestListSubmissions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	owner := uuid.New()
	form := f.form(t, owner)
	f.seed(t, form.ID, 60)

	page, err := f.svc.ListSubmissions(ctx, owner, form.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), page.Total)
	assert.Equal(t, int64(50), page.Visible)
	assert.Equal(t, int64(10), page.Hidden)
	require.Len(t, page.Submissions, 20)
	assert.JSONEq(t, `{"n":49}`, string(page.Submissions[0].Payload))
	assert.JSONEq(t, `{"n":30}`, string(page.Submissions[19].Payload))

	page, err = f.svc.ListSubmissions(ctx, owner, form.ID, 3, 20)
	require.NoError(t, err)
	require.Len(t, page.Submissions, 10)
	assert.JSONEq(t, `{"n":0}`, string(page.Submissions[9].Payload))

	page, err = f.svc.ListSubmissions(ctx, owner, form.ID, 4, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Submissions)

	_, err = f.svc.ListSubmissions(ctx, uuid.New(), form.ID, 1, 20)
	assert.ErrorIs(t, err, intake.ErrForbidden)
}

func TestUsage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	owner := uuid.New()
	form := f.form(t, owner)
	f.seed(t, form.ID, 7)

	u, err := f.svc.Usage(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "free", u.Tier)
	require.Len(t, u.Quotas, 2)
	assert.Equal(t, quota.ResourceForms, u.Quotas[0].Resource)
	assert.Equal(t, int64(1), u.Quotas[0].Used)
	assert.Equal(t, int64(7), u.Quotas[1].Used)
	assert.Equal(t, quota.MonthStart(fixedNow), u.Quotas[1].WindowStart)
}

func TestGatedWritesResolveTierOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := func() time.Time { return fixedNow }

	var lookups atomic.Int32
	tiers := tier.NewResolver(tier.SourceFunc(func(context.Context, uuid.UUID) (tier.Tier, bool, error) {
		lookups.Add(1)
		return tier.Starter, true, nil
	}), tier.WithLogger(logger.Nop()))

	repo := intake.NewMemoryRepository()
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(ratelimit.WithMemoryClock(clock)), tier.DefaultTable(), ratelimit.WithClock(clock))
	guard := quota.NewGuard(repo, tiers, tier.DefaultTable(), quota.WithClock(clock))
	svc := intake.NewService(repo, limiter, guard, tiers, intake.WithClock(clock))

	form, _, err := svc.CreateForm(ctx, uuid.New(), "Signup")
	require.NoError(t, err)
	assert.Equal(t, int32(1), lookups.Load())

	_, err = svc.Submit(ctx, form.ID, "198.51.100.7", []byte(`{"email":"a@example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, int32(2), lookups.Load())
}
