package clientip

import "net/http"

// Middleware resolves the client address with headers (DefaultHeaders when empty) and
// stores it in the request context.
func Middleware(headers ...string) func(http.Handler) http.Handler {
	if len(headers) == 0 {
		headers = DefaultHeaders
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := SetIPToContext(r.Context(), Resolve(r, headers))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
