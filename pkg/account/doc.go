// Package account describes the billing profile of a formgate account and the Store
// contract the rest of the system uses to read and update it.
//
// Profiles are created lazily: an account with no profile is treated as free, and the
// first billing event that carries the account id creates one.
//
// Billing providers do not guarantee delivery order. Each profile remembers when the
// newest applied event occurred (LastEventAt), and SaveSubscription rejects older
// updates with ErrStaleUpdate instead of letting a late "updated" event undo a
// cancellation.
package account
