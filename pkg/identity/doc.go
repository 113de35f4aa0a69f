// Package identity authenticates API callers with HS256 bearer tokens whose sub claim
// is the account id.
//
//	svc, err := identity.New(identity.Config{Secret: os.Getenv("JWT_SECRET")})
//	r.With(identity.Middleware(svc)).Get("/api/usage", usageHandler)
//
//	// inside the handler
//	accountID, ok := identity.AccountIDFromContext(r.Context())
package identity
