package ratelimit

import (
	"net/http"

	"github.com/dmitrymomot/formgate/pkg/tier"
)

// IdentityFunc extracts the rate limit identifier and tier from a request. Returning
// ok=false skips limiting for that request.
type IdentityFunc func(r *http.Request) (identifier string, t tier.Tier, ok bool)

// Middleware gates every request through limiter for res. Allowed responses carry the
// X-RateLimit-* headers; denied ones get WriteExceeded. Check errors (misconfigured
// resource) pass the request through.
func Middleware(limiter *Limiter, res tier.Resource, identify IdentityFunc) func(http.Handler) http.Handler {
	if limiter == nil {
		panic(ErrLimiterRequired)
	}
	if identify == nil {
		panic(ErrIdentityFunc)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, t, ok := identify(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Check(r.Context(), res, t, id)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if !result.Allowed {
				WriteExceeded(w, result)
				return
			}

			WriteHeaders(w, result)
			next.ServeHTTP(w, r)
		})
	}
}
