package identity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey struct{ name string }

func (c contextKey) String() string { return c.name }

var accountIDKey = &contextKey{name: "account_id"}

// WithAccountID stores the authenticated account id in ctx.
func WithAccountID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, accountIDKey, id)
}

// AccountIDFromContext returns the authenticated account id, if any.
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// LoggerExtractor adds account_id to log records of authenticated requests.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := AccountIDFromContext(ctx); ok {
			return slog.String("account_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
