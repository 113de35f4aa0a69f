package billing

import (
	"errors"
	"fmt"
)

var (
	ErrSecretNotConfigured = errors.New("billing: webhook secret is not configured")
	ErrMissingSignature    = errors.New("billing: signature header is missing")
	ErrInvalidSignature    = errors.New("billing: webhook signature verification failed")
	ErrInvalidPayload      = errors.New("billing: malformed webhook payload")
	ErrMissingEventID      = errors.New("billing: webhook event id is missing")

	ErrMissingCustomer  = errors.New("billing: event has no customer id")
	ErrUnmappedCustomer = errors.New("billing: customer id is not linked to any account")
	ErrUnknownPrice     = errors.New("billing: price id does not map to a tier")

	ErrLedgerRequired   = errors.New("billing: ledger is required")
	ErrHandlersRequired = errors.New("billing: event handlers are required")
)

// RetryableError reports a failure the sender should redeliver. The ledger entry has
// already been released when it is returned.
type RetryableError struct {
	EventID string
	Err     error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("billing: event %s failed: %v", e.EventID, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }
