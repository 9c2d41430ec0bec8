package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrInvalidOrExpired covers every failed claim-code verification.
	// Absent, consumed and expired codes are deliberately indistinguishable
	// so callers get no code-guessing feedback.
	ErrInvalidOrExpired = errors.New("invalid or expired code")
)
