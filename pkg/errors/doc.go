// Package errors provides structured error handling with error codes for dental-idm.
//
// Every failure a client can act on carries its own ErrorCode so HTTP
// handlers can route users precisely (for example EMAIL_NOT_VERIFIED shows
// the code-entry step and WRONG_ORIGIN shows the "use Google sign-in"
// banner). Anything without a code is treated as INTERNAL_ERROR and answered
// with a generic message.
//
// # Basic Usage
//
//	import "github.com/tendant/dental-idm/pkg/errors"
//
//	// Create a simple error
//	err := errors.New(errors.ErrCodeNotFound, "user not found")
//
//	// Wrap an existing error
//	err := errors.Wrap(dbErr, errors.ErrCodeInternal, "failed to query users")
//
//	// Convenience constructors
//	err := errors.Conflict("user", email)
//	err := errors.InvalidInput("code", "must be 6 digits")
//	err := errors.DeliveryFailed(smtpErr)
//
// # Inspecting errors
//
//	if errors.IsCode(err, errors.ErrCodeCodeExpired) {
//		// ask the user to request a new code
//	}
//	status := errors.MapErrorCodeToHTTPStatus(errors.GetCode(err))
//
// Sentinels created with New match through the standard library's
// errors.Is, because Error.Is compares codes:
//
//	var ErrUserNotFound = errors.New(errors.ErrCodeNotFound, "user not found")
//	stderrors.Is(fmt.Errorf("lookup: %w", ErrUserNotFound), ErrUserNotFound) // true
//
// # HTTP mapping
//
//	VALIDATION_FAILED, CODE_MISMATCH, TOKEN_INVALID    400
//	UNAUTHORIZED, BAD_CREDENTIAL                       401
//	FORBIDDEN, EMAIL_NOT_VERIFIED, USER_BLOCKED        403
//	NOT_FOUND                                          404
//	CONFLICT, WRONG_ORIGIN, EMAIL_ALREADY_VERIFIED     409
//	CODE_EXPIRED                                       410
//	RATE_LIMIT_EXCEEDED                                429
//	DELIVERY_FAILED                                    502
//	TIMEOUT                                            503
//	INTERNAL_ERROR and anything unknown                500
package errors
