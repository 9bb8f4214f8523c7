package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown identity, wrong password and
	// deactivated accounts alike, so responses cannot be used to enumerate
	// which one failed.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	// ErrTokenRevoked indicates a refresh token that is expired, revoked or
	// already rotated.
	ErrTokenRevoked = errors.New("token revoked")
)
