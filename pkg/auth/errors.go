package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountLocked      = errors.New("auth: account is temporarily locked due to too many failed login attempts")
	ErrAccountInactive    = errors.New("auth: account is not active")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
	ErrTokenRevoked       = errors.New("auth: token has been revoked")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrEmailVerified      = errors.New("auth: email already verified")
	ErrWrongPassword      = errors.New("auth: current password is incorrect")
)
