package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Login failures collapse into a single error on purpose:
	// unknown identifier and wrong password must stay indistinguishable
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Single error for every refresh failure: bad signature, expired,
	// revoked or unknown token. Callers must not be able to tell which
	ErrRefreshTokenInvalid = errors.New("invalid or expired refresh token")

	ErrMailNotFound = errors.New("mail not found")
)
