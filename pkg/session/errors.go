package session

import "errors"

var (
	// ErrNotConfigured is returned when session functionality is used
	// without a session manager.
	ErrNotConfigured = errors.New("session: not configured")

	ErrNotFound      = errors.New("session: not found")
	ErrExpired       = errors.New("session: expired")
	ErrInvalidToken  = errors.New("session: invalid token")
	ErrTypeMismatch  = errors.New("session: type mismatch")
	ErrCSRFMismatch  = errors.New("session: csrf token mismatch")
	ErrUnknownDriver = errors.New("session: unknown driver")
)
