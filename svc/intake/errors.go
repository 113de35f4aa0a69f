package intake

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/formgate/pkg/quota"
	"github.com/dmitrymomot/formgate/pkg/ratelimit"
)

var (
	ErrFormNotFound   = errors.New("intake: form not found")
	ErrForbidden      = errors.New("intake: form belongs to another account")
	ErrInvalidName    = errors.New("intake: form name must be 1-120 characters")
	ErrInvalidPayload = errors.New("intake: submission payload must be a non-empty JSON object")
	ErrPayloadTooBig  = errors.New("intake: submission payload is too large")
)

// RateLimitError is returned when a write is refused by the rate limiter.
type RateLimitError struct {
	Result ratelimit.Result
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("intake: rate limit exceeded for %s", e.Result.Resource)
}

// QuotaError is returned when a write is refused by a durable quota.
type QuotaError struct {
	Decision quota.Decision
}

func (e *QuotaError) Error() string {
	return "intake: " + e.Decision.Reason
}
