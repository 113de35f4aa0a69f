package billing_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formgate/pkg/billing"
)

const testSecret = "pdl_ntfset_test_secret"

func sign(t *testing.T, body string) string {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(ts + ":" + body))
	return fmt.Sprintf("ts=%s;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func post(t *testing.T, h http.Handler, body, signature string) (*httptest.ResponseRecorder, billing.WebhookResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paddle", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(billing.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp billing.WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func newWebhook(t *testing.T) (http.Handler, *countingHandlers) {
	t.Helper()
	v, err := billing.NewPaddleVerifier(testSecret)
	require.NoError(t, err)
	h := newCountingHandlers()
	d, _ := newDispatcher(t, h)
	return billing.WebhookHandler(v, d, nil), h
}

const updatedEvent = `{"event_id":"evt_123","event_type":"subscription.updated","data":{"id":"sub_1","customer_id":"ctm_1"}}`

func TestWebhookHandler(t *testing.T) {
	t.Parallel()

	t.Run("duplicate delivery runs handler once", func(t *testing.T) {
		t.Parallel()
		h, handlers := newWebhook(t)

		rec, resp := post(t, h, updatedEvent, sign(t, updatedEvent))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Received)
		assert.Equal(t, "evt_123", resp.EventID)
		assert.False(t, resp.Duplicate)

		rec, resp = post(t, h, updatedEvent, sign(t, updatedEvent))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Received)
		assert.True(t, resp.Duplicate)

		assert.Equal(t, 1, handlers.count(billing.KindSubscriptionUpdated))
	})

	t.Run("missing signature", func(t *testing.T) {
		t.Parallel()
		h, handlers := newWebhook(t)

		rec, resp := post(t, h, updatedEvent, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing signature", resp.Error)
		assert.Zero(t, handlers.count(billing.KindSubscriptionUpdated))
	})

	t.Run("bad signature", func(t *testing.T) {
		t.Parallel()
		h, handlers := newWebhook(t)

		ts := strconv.FormatInt(time.Now().Unix(), 10)
		rec, resp := post(t, h, updatedEvent, "ts="+ts+";h1="+strings.Repeat("ab", 32))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid signature", resp.Error)
		assert.Zero(t, handlers.count(billing.KindSubscriptionUpdated))
	})

	t.Run("tampered body", func(t *testing.T) {
		t.Parallel()
		h, _ := newWebhook(t)

		sig := sign(t, updatedEvent)
		rec, _ := post(t, h, strings.Replace(updatedEvent, "ctm_1", "ctm_2", 1), sig)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("secret not configured", func(t *testing.T) {
		t.Parallel()
		d, _ := newDispatcher(t, newCountingHandlers())
		h := billing.WebhookHandler(nil, d, nil)

		rec, resp := post(t, h, updatedEvent, sign(t, updatedEvent))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotEmpty(t, resp.Error)
		assert.False(t, resp.Retryable)
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		h, _ := newWebhook(t)

		body := `{"event_type":"subscription.updated"}`
		rec, resp := post(t, h, body, sign(t, body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid payload", resp.Error)
	})

	t.Run("handler failure is retryable", func(t *testing.T) {
		t.Parallel()
		v, err := billing.NewPaddleVerifier(testSecret)
		require.NoError(t, err)
		handlers := newCountingHandlers()
		handlers.fail.Store(true)
		d, _ := newDispatcher(t, handlers)
		h := billing.WebhookHandler(v, d, nil)

		rec, resp := post(t, h, updatedEvent, sign(t, updatedEvent))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.True(t, resp.Retryable)
		assert.Equal(t, "evt_123", resp.EventID)

		handlers.fail.Store(false)
		rec, resp = post(t, h, updatedEvent, sign(t, updatedEvent))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, resp.Duplicate)
	})

	t.Run("unknown event acknowledged", func(t *testing.T) {
		t.Parallel()
		h, _ := newWebhook(t)

		body := `{"event_id":"evt_9","event_type":"report.created","data":{}}`
		rec, resp := post(t, h, body, sign(t, body))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Received)
		assert.Equal(t, "evt_9", resp.EventID)
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()
		h, _ := newWebhook(t)

		body := strings.Repeat("x", billing.MaxWebhookBody+1)
		rec, resp := post(t, h, body, "ts=1;h1=00")
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "Payload too large", resp.Error)
	})
}

func TestNewPaddleVerifier(t *testing.T) {
	t.Parallel()

	_, err := billing.NewPaddleVerifier("  ")
	assert.ErrorIs(t, err, billing.ErrSecretNotConfigured)
}
