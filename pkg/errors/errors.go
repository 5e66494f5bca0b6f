package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine readable code rendered in error responses
type ErrorCode string

const (
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeTimeout           ErrorCode = "TIMEOUT"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// account state
	ErrCodeBadCredential        ErrorCode = "BAD_CREDENTIAL"
	ErrCodeWrongOrigin          ErrorCode = "WRONG_ORIGIN"
	ErrCodeEmailNotVerified     ErrorCode = "EMAIL_NOT_VERIFIED"
	ErrCodeEmailAlreadyVerified ErrorCode = "EMAIL_ALREADY_VERIFIED"
	ErrCodeUserBlocked          ErrorCode = "USER_BLOCKED"
	ErrCodeTokenInvalid         ErrorCode = "TOKEN_INVALID"

	// verification codes and links
	ErrCodeCodeMismatch ErrorCode = "CODE_MISMATCH"
	ErrCodeCodeExpired  ErrorCode = "CODE_EXPIRED"

	ErrCodeDeliveryFailed ErrorCode = "DELIVERY_FAILED"
)

var httpStatus = map[ErrorCode]int{
	ErrCodeValidationFailed:     http.StatusBadRequest,
	ErrCodeCodeMismatch:         http.StatusBadRequest,
	ErrCodeTokenInvalid:         http.StatusBadRequest,
	ErrCodeUnauthorized:         http.StatusUnauthorized,
	ErrCodeBadCredential:        http.StatusUnauthorized,
	ErrCodeForbidden:            http.StatusForbidden,
	ErrCodeEmailNotVerified:     http.StatusForbidden,
	ErrCodeUserBlocked:          http.StatusForbidden,
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeConflict:             http.StatusConflict,
	ErrCodeWrongOrigin:          http.StatusConflict,
	ErrCodeEmailAlreadyVerified: http.StatusConflict,
	ErrCodeCodeExpired:          http.StatusGone,
	ErrCodeRateLimitExceeded:    http.StatusTooManyRequests,
	ErrCodeDeliveryFailed:       http.StatusBadGateway,
	ErrCodeTimeout:              http.StatusServiceUnavailable,
}

// Error carries a code, a message safe to show to clients and optional
// details rendered next to them. Err is kept for logs only.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so package level sentinels
// built with New still match after WithDetail or Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithDetail sets one detail and returns e
func (e *Error) WithDetail(key string, value interface{}) *Error {
	return e.WithDetails(map[string]interface{}{key: value})
}

// WithDetails merges details into e and returns it
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches code and message to err. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// IsCode reports whether err is, or wraps, an *Error with code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// GetCode returns the code of err, or ErrCodeInternal for plain errors
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// GetDetails returns the details of err, nil for plain errors
func GetDetails(err error) map[string]interface{} {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// MapErrorCodeToHTTPStatus returns the response status for code. Unknown
// codes are 500.
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	if status, ok := httpStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func NotFound(resource, id string) *Error {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found: %s", resource, id))
}

func Conflict(resource, id string) *Error {
	return New(ErrCodeConflict, fmt.Sprintf("%s already exists: %s", resource, id))
}

// InvalidInput is a VALIDATION_FAILED error naming the offending field
func InvalidInput(field, reason string) *Error {
	return New(ErrCodeValidationFailed, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithDetail("field", field)
}

func Unauthorized(message string) *Error {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(ErrCodeForbidden, message)
}

func InternalWrap(err error, message string) *Error {
	return Wrap(err, ErrCodeInternal, message)
}

// DeliveryFailed wraps a transport error raised while sending email
func DeliveryFailed(err error) *Error {
	return Wrap(err, ErrCodeDeliveryFailed, "failed to deliver email")
}

// RateLimitExceeded sets retry_after when it is known
func RateLimitExceeded(retryAfter string) *Error {
	err := New(ErrCodeRateLimitExceeded, "rate limit exceeded")
	if retryAfter != "" {
		err.WithDetail("retry_after", retryAfter)
	}
	return err
}
