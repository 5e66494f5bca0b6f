package account

import (
	stderrors "errors"

	"github.com/tendant/dental-idm/pkg/errors"
)

var (
	// ErrUserNotFound is returned when no account matches the lookup
	ErrUserNotFound = errors.New(errors.ErrCodeNotFound, "user not found")

	// ErrEmailTaken is returned when signing up with a registered email
	ErrEmailTaken = errors.New(errors.ErrCodeConflict, "this email is already registered, try signing in instead")

	// ErrWrongOrigin is returned when an account is used through the other sign-in method
	ErrWrongOrigin = errors.New(errors.ErrCodeWrongOrigin, "this account uses a different sign-in method")

	// ErrBlocked is returned for blocked or deactivated accounts
	ErrBlocked = errors.New(errors.ErrCodeUserBlocked, "this account has been blocked")

	// ErrUnverified is returned when signing in before the email is verified
	ErrUnverified = errors.New(errors.ErrCodeEmailNotVerified, "email address is not verified")

	// ErrBadCredential is returned when the password does not match
	ErrBadCredential = errors.New(errors.ErrCodeBadCredential, "invalid credentials")

	// ErrNoMatch is returned by Repository.RedeemSecret when no document
	// satisfied the redeem filter. The caller classifies the failure.
	ErrNoMatch = stderrors.New("no matching secret")
)
