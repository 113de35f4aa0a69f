package tier

import "errors"

var (
	ErrUnknownTier     = errors.New("unknown subscription tier")
	ErrInvalidTable    = errors.New("invalid tier limit table")
	ErrFailedToLoad    = errors.New("failed to load tier limit table")
	ErrUnknownResource = errors.New("unknown rate limited resource")
	ErrSourceRequired  = errors.New("tier: source is required")
)
