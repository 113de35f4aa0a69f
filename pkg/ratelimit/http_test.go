package ratelimit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formgate/pkg/ratelimit"
	"github.com/dmitrymomot/formgate/pkg/tier"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	clock := newClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	limiter := newMemoryLimiter(clock)

	identify := func(r *http.Request) (string, tier.Tier, bool) {
		acct := r.Header.Get("X-Account")
		return acct, tier.Free, acct != ""
	}
	assert.PanicsWithValue(t, ratelimit.ErrLimiterRequired, func() { ratelimit.Middleware(nil, tier.ResourceAPI, identify) })
	assert.PanicsWithValue(t, ratelimit.ErrIdentityFunc, func() { ratelimit.Middleware(limiter, tier.ResourceAPI, nil) })

	h := ratelimit.Middleware(limiter, tier.ResourceFormCreation, identify)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) }),
	)

	send := func(acct string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/forms", nil)
		if acct != "" {
			req.Header.Set("X-Account", acct)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := range 5 {
		rec := send("acct-1")
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "5", rec.Header().Get(ratelimit.HeaderLimit))
		assert.Equal(t, strconv.Itoa(4-i), rec.Header().Get(ratelimit.HeaderRemaining))
		assert.Equal(t,
			strconv.FormatInt(time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC).UnixMilli(), 10),
			rec.Header().Get(ratelimit.HeaderReset),
		)
	}

	rec := send("acct-1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get(ratelimit.HeaderRetryAfter))

	var body ratelimit.ExceededResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Too many requests", body.Error)
	assert.Contains(t, body.Message, "Free plan")
	assert.Equal(t, 5, body.RateLimitInfo.Limit)
	assert.Equal(t, 0, body.RateLimitInfo.Remaining)
	assert.Equal(t, int64(3600), body.RateLimitInfo.RetryAfter)

	anon := send("")
	assert.Equal(t, http.StatusCreated, anon.Code)
	assert.Empty(t, anon.Header().Get(ratelimit.HeaderLimit))
}

func TestWriteHeadersAllowed(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), nil)
	res, err := limiter.Check(context.Background(), tier.ResourceAPI, tier.Starter, "acct")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	ratelimit.WriteHeaders(rec, res)
	assert.Equal(t, "300", rec.Header().Get(ratelimit.HeaderLimit))
	assert.Equal(t, "299", rec.Header().Get(ratelimit.HeaderRemaining))
	assert.Empty(t, rec.Header().Get(ratelimit.HeaderRetryAfter))
}
