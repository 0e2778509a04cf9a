package jwt

import "errors"

var (
	ErrMissingSecret    = errors.New("jwt: secret is required")
	ErrInvalidToken     = errors.New("jwt: invalid token")
	ErrExpiredToken     = errors.New("jwt: token expired")
	ErrInvalidSignature = errors.New("jwt: invalid signature")
)
