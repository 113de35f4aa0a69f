package ledger

import "errors"

var (
	ErrEmptyEventID = errors.New("ledger: event id is required")
	ErrNotClaimed   = errors.New("ledger: event is not in processing state")
)
