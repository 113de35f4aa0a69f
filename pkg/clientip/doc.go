// Package clientip derives the caller's address from proxy headers. The address is
// the rate limit identifier for anonymous form submissions.
//
// GetIP walks DefaultHeaders (CF-Connecting-IP, DO-Connecting-IP, X-Forwarded-For,
// X-Real-IP) and returns the first valid address, taking the left-most valid entry of
// list headers. It falls back to RemoteAddr and finally to Unknown. Every value is
// parsed with net.ParseIP and normalized, so malformed or injected header content
// never becomes part of a rate limit key.
//
// # Usage
//
// Install the middleware once, with the headers your edge proxy sets:
//
//	r.Use(clientip.Middleware("CF-Connecting-IP", "X-Forwarded-For"))
//
// and read the address from the request context in handlers:
//
//	ip := clientip.GetIPFromContext(r.Context())
//
// Resolve is the same lookup with an explicit header list, for code that has a
// request but no middleware in front of it.
//
// # Security
//
// Header order matters: only list headers that your proxy sets and strips from client
// input. Otherwise a client can pick its own rate limit bucket by sending a forged
// X-Forwarded-For.
package clientip
