package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formgate/pkg/identity"
)

func newService(t *testing.T) *identity.Service {
	t.Helper()
	s, err := identity.New(identity.Config{Secret: "test-secret-key-0123456789abcdef", Issuer: "formgate", TokenTTL: time.Hour})
	require.NoError(t, err)
	return s
}

func TestService(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		s := newService(t)
		id := uuid.New()

		token, err := s.Issue(id)
		require.NoError(t, err)

		got, err := s.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		other, err := identity.New(identity.Config{Secret: "another-secret", Issuer: "formgate"})
		require.NoError(t, err)
		token, err := other.Issue(uuid.New())
		require.NoError(t, err)

		_, err = newService(t).Verify(token)
		assert.ErrorIs(t, err, identity.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		claims := jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "formgate",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-0123456789abcdef"))
		require.NoError(t, err)

		_, err = newService(t).Verify(token)
		assert.ErrorIs(t, err, identity.ErrInvalidToken)
	})

	t.Run("subject must be uuid", func(t *testing.T) {
		t.Parallel()
		claims := jwt.RegisteredClaims{
			Subject:   "user-42",
			Issuer:    "formgate",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-0123456789abcdef"))
		require.NoError(t, err)

		_, err = newService(t).Verify(token)
		assert.ErrorIs(t, err, identity.ErrInvalidSubject)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()
		_, err := identity.New(identity.Config{})
		assert.ErrorIs(t, err, identity.ErrMissingSigningKey)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	s := newService(t)
	id := uuid.New()
	token, err := s.Issue(id)
	require.NoError(t, err)

	var seen uuid.UUID
	h := identity.Middleware(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = identity.AccountIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, tt.name)
	}
	assert.Equal(t, id, seen)
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()
	extract := identity.LoggerExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	id := uuid.New()
	attr, ok := extract(identity.WithAccountID(context.Background(), id))
	require.True(t, ok)
	assert.Equal(t, id.String(), attr.Value.String())
}
