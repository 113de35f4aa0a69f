package identity

import "errors"

var (
	ErrMissingSigningKey = errors.New("identity: missing signing key")
	ErrMissingToken      = errors.New("identity: missing bearer token")
	ErrInvalidToken      = errors.New("identity: invalid token")
	ErrInvalidSubject    = errors.New("identity: token subject is not an account id")
)
