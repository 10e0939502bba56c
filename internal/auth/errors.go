package auth

import "errors"

// Error taxonomy of the verification handshake. Handlers map these to HTTP
// statuses; nothing is retried or recovered internally.
var (
	ErrInvalidCode       = errors.New("invalid code")
	ErrInvalidCredential = errors.New("invalid password")
	ErrNotFound          = errors.New("account not found")
	ErrNotVerified       = errors.New("account not verified")
	ErrAlreadyRegistered = errors.New("account already registered")
	ErrDeliveryFailed    = errors.New("code delivery failed")
	ErrUnauthorized      = errors.New("unauthorized")
)
