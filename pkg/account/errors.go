package account

import "errors"

var (
	ErrNotFound          = errors.New("account profile not found")
	ErrCustomerNotMapped = errors.New("payment customer is not linked to an account")
	ErrCustomerConflict  = errors.New("payment customer is linked to another account")
	ErrInvalidStatus     = errors.New("invalid subscription status")
	ErrStaleUpdate       = errors.New("subscription update is older than the last applied event")
)
