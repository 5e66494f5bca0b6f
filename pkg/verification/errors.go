package verification

import (
	"github.com/tendant/dental-idm/pkg/errors"
)

var (
	// ErrSecretNotFound is returned when the account has no pending secret
	// for the purpose, or a link token matches no account
	ErrSecretNotFound = errors.New(errors.ErrCodeNotFound, "no pending verification code, request a new one")

	// ErrMismatch is returned when the presented secret differs from the stored one
	ErrMismatch = errors.New(errors.ErrCodeCodeMismatch, "invalid verification code")

	// ErrExpired is returned when the stored secret has expired
	ErrExpired = errors.New(errors.ErrCodeCodeExpired, "verification code has expired, request a new one")

	// ErrAlreadyVerified is returned when asking to verify a verified email
	ErrAlreadyVerified = errors.New(errors.ErrCodeEmailAlreadyVerified, "email is already verified")
)

func invalidCode() error {
	return errors.InvalidInput("code", "must be 6 digits")
}

func invalidToken() error {
	return errors.InvalidInput("token", "is required")
}
