package api

import "github.com/tendant/dental-idm/pkg/common"

type VerifyCodeRequest struct {
	Email  string `json:"email,omitempty" validate:"required_without=UserID"`
	UserID string `json:"user_id,omitempty" validate:"required_without=Email"`
	Code   string `json:"code" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CheckResetCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type VerifiedResponse struct {
	Message string `json:"message"`
	common.SessionResponse
}

type SentResponse struct {
	Message string `json:"message"`
	// ExpiresIn is the lifetime of the sent code in seconds
	ExpiresIn int `json:"expires_in"`
	// RetryAfter is the wait in seconds before another code can be requested
	RetryAfter int `json:"retry_after"`
}

type VerificationStatusResponse struct {
	Verified bool `json:"verified"`
}
