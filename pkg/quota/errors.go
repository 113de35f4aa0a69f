package quota

import "errors"

var (
	ErrCounterRequired  = errors.New("quota: usage counter is required")
	ErrResolverRequired = errors.New("quota: tier resolver is required")
	ErrCountFailed      = errors.New("quota: failed to count usage")
)
