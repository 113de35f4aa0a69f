package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formgate/internal/server"
	"github.com/dmitrymomot/formgate/pkg/account"
	"github.com/dmitrymomot/formgate/pkg/billing"
	"github.com/dmitrymomot/formgate/pkg/httpserver"
	"github.com/dmitrymomot/formgate/pkg/identity"
	"github.com/dmitrymomot/formgate/pkg/ledger"
	"github.com/dmitrymomot/formgate/pkg/logger"
	"github.com/dmitrymomot/formgate/pkg/metrics"
	"github.com/dmitrymomot/formgate/pkg/quota"
	"github.com/dmitrymomot/formgate/pkg/ratelimit"
	"github.com/dmitrymomot/formgate/pkg/tier"
	"github.com/dmitrymomot/formgate/svc/intake"
)

type app struct {
	handler http.Handler
	repo    *intake.MemoryRepository
	ids     *identity.Service
}

func newApp(t *testing.T, checks ...httpserver.Check) *app {
	t.Helper()
	log := logger.Nop()
	rec := metrics.New()

	repo := intake.NewMemoryRepository()
	accounts := account.NewMemoryStore()
	tiers := tier.NewResolver(account.TierSource(accounts), tier.WithLogger(log))
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), tier.DefaultTable(), ratelimit.WithLogger(log), ratelimit.WithMetrics(rec))
	guard := quota.NewGuard(repo, tiers, tier.DefaultTable(), quota.WithLogger(log), quota.WithMetrics(rec))
	svc := intake.NewService(repo, limiter, guard, tiers, intake.WithLogger(log))

	ids, err := identity.New(identity.Config{Secret: "server-test-secret", Issuer: "formgate"})
	require.NoError(t, err)

	dispatcher := billing.NewDispatcher(
		ledger.NewMemoryLedger(ledger.Config{}),
		billing.NewSubscriptionSync(accounts, tier.NewPriceMap("pri_s", "pri_p", "pri_e"), log),
		billing.WithLogger(log), billing.WithMetrics(rec),
	)
	verifier, err := billing.NewPaddleVerifier("whsec")
	require.NoError(t, err)

	h := server.New(server.Deps{
		Intake:   svc,
		Limiter:  limiter,
		Tiers:    tiers,
		Identity: ids,
		Webhook:  billing.WebhookHandler(verifier, dispatcher, log),
		Metrics:  rec,
		Checks:   checks,
		Log:      log,
	})
	return &app{handler: h, repo: repo, ids: ids}
}

func (a *app) form(t *testing.T, owner uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, a.repo.InsertForm(context.Background(), intake.Form{ID: id, AccountID: owner, Name: "Contact"}))
	return id
}

func (a *app) token(t *testing.T, owner uuid.UUID) string {
	t.Helper()
	tok, err := a.ids.Issue(owner)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (a *app) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func submitReq(formID uuid.UUID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/f/"+formID.String(), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	return req
}

func TestSubmitEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("created with rate limit headers", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		formID := a.form(t, uuid.New())

		rec := a.do(submitReq(formID, `{"email":"a@example.com"}`))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "10", rec.Header().Get(ratelimit.HeaderLimit))
		assert.Equal(t, "9", rec.Header().Get(ratelimit.HeaderRemaining))
		reset, err := strconv.ParseInt(rec.Header().Get(ratelimit.HeaderReset), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, reset, time.Now().UnixMilli())
		assert.Empty(t, rec.Header().Get(ratelimit.HeaderRetryAfter))
	})

	t.Run("eleventh call is rejected", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		formID := a.form(t, uuid.New())

		for i := range 10 {
			rec := a.do(submitReq(formID, `{"n":1}`))
			require.Equal(t, http.StatusCreated, rec.Code, "call %d", i+1)
		}
		rec := a.do(submitReq(formID, `{"n":1}`))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		var body ratelimit.ExceededResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, "Too many requests", body.Error)
		assert.Contains(t, body.Message, "Free plan")
		assert.Equal(t, 10, body.RateLimitInfo.Limit)
		assert.Zero(t, body.RateLimitInfo.Remaining)
		assert.Positive(t, body.RateLimitInfo.RetryAfter)
		assert.NotEmpty(t, rec.Header().Get(ratelimit.HeaderRetryAfter))
	})

	t.Run("urlencoded form post", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		formID := a.form(t, uuid.New())

		form := url.Values{"email": {"a@example.com"}, "tags": {"x", "y"}}
		req := httptest.NewRequest(http.MethodPost, "/f/"+formID.String(), strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := a.do(req)
		require.Equal(t, http.StatusCreated, rec.Code)

		subs, err := a.repo.ListSubmissions(context.Background(), formID, 10, 0, 10)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.JSONEq(t, `{"email":"a@example.com","tags":["x","y"]}`, string(subs[0].Payload))
	})

	t.Run("unknown form and bad payload", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)

		rec := a.do(submitReq(uuid.New(), `{"n":1}`))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = a.do(httptest.NewRequest(http.MethodPost, "/f/not-a-uuid", strings.NewReader(`{"n":1}`)))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		formID := a.form(t, uuid.New())
		rec = a.do(submitReq(formID, `[1,2]`))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAPI(t *testing.T) {
	t.Parallel()

	t.Run("requires bearer token", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		rec := a.do(httptest.NewRequest(http.MethodGet, "/api/usage", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("usage carries api rate limit headers", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		owner := uuid.New()
		a.form(t, owner)

		req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
		req.Header.Set("Authorization", a.token(t, owner))
		rec := a.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "60", rec.Header().Get(ratelimit.HeaderLimit))

		var body struct {
			Success bool         `json:"success"`
			Data    intake.Usage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, "free", body.Data.Tier)
		require.NotEmpty(t, body.Data.Quotas)
		assert.Equal(t, int64(1), body.Data.Quotas[0].Used)
	})

	t.Run("form creation quota", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		owner := uuid.New()
		create := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/forms", strings.NewReader(`{"name":"Signup"}`))
			req.Header.Set("Authorization", a.token(t, owner))
			return a.do(req)
		}

		for range 3 {
			require.Equal(t, http.StatusCreated, create().Code)
		}
		rec := create()
		require.Equal(t, http.StatusForbidden, rec.Code)

		var body server.Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, "Quota exceeded", body.Error)
		assert.Contains(t, body.Message, "3 forms")
		require.NotNil(t, body.Quota)
		assert.Equal(t, quota.ResourceForms, body.Quota.Resource)
	})

	t.Run("submissions of another account", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		formID := a.form(t, uuid.New())

		req := httptest.NewRequest(http.MethodGet, "/api/forms/"+formID.String()+"/submissions", nil)
		req.Header.Set("Authorization", a.token(t, uuid.New()))
		assert.Equal(t, http.StatusForbidden, a.do(req).Code)
	})

	t.Run("lists own submissions", func(t *testing.T) {
		t.Parallel()
		a := newApp(t)
		owner := uuid.New()
		formID := a.form(t, owner)
		require.Equal(t, http.StatusCreated, a.do(submitReq(formID, `{"n":1}`)).Code)

		req := httptest.NewRequest(http.MethodGet, "/api/forms/"+formID.String()+"/submissions?page=1&perPage=5", nil)
		req.Header.Set("Authorization", a.token(t, owner))
		rec := a.do(req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data intake.Page `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Data.Submissions, 1)
		assert.Equal(t, int64(1), body.Data.Total)
		assert.Equal(t, 5, body.Data.PerPage)
	})
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()

	a := newApp(t, httpserver.Check{Name: "redis", Probe: func(context.Context) error { return errors.New("down") }})

	assert.Equal(t, http.StatusOK, a.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, a.do(httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)

	rec := a.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = a.do(httptest.NewRequest(http.MethodPost, "/webhooks/paddle", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
