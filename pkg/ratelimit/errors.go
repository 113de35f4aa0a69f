package ratelimit

import "errors"

var (
	ErrStoreRequired   = errors.New("ratelimit: store is required")
	ErrInvalidWindow   = errors.New("ratelimit: window must be positive")
	ErrIdentifierEmpty = errors.New("ratelimit: identifier is required")
	ErrLimiterRequired = errors.New("ratelimit: limiter is required")
	ErrIdentityFunc    = errors.New("ratelimit: identity func is required")
)
