package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/errors"
	"github.com/tendant/dental-idm/pkg/ratelimit"
	"github.com/tendant/dental-idm/pkg/verification"
)

// Handle serves email verification and password reset
type Handle struct {
	service     *verification.Service
	mailer      *verification.Mailer
	accounts    *account.AccountService
	sessions    *common.SessionIssuer
	cooldown    *ratelimit.Cooldown
	redirectURL string
}

type Option func(*Handle)

// WithCooldown limits how often a code can be requested per email
func WithCooldown(c *ratelimit.Cooldown) Option {
	return func(h *Handle) {
		h.cooldown = c
	}
}

// WithVerifiedRedirect makes link verification redirect to url on success
func WithVerifiedRedirect(url string) Option {
	return func(h *Handle) {
		h.redirectURL = url
	}
}

func NewHandle(service *verification.Service, mailer *verification.Mailer, accounts *account.AccountService, sessions *common.SessionIssuer, opts ...Option) *Handle {
	h := &Handle{
		service:  service,
		mailer:   mailer,
		accounts: accounts,
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handle) Routes(r chi.Router) {
	r.Get("/verify/email", h.VerifyEmailLink)
	r.Post("/verify-code", h.VerifyCode)
	r.Post("/send-verification-code", h.SendVerificationCode)
	r.Get("/check-verification", h.CheckVerification)

	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/verify-reset-code", h.VerifyResetCode)
	r.Post("/reset-password", h.ResetPassword)
}

// VerifyEmailLink redeems the token from a mailed verification link
func (h *Handle) VerifyEmailLink(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.RedeemLink(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	if h.redirectURL != "" {
		http.Redirect(w, r, h.redirectURL, http.StatusFound)
		return
	}
	h.writeVerified(w, r, user, "Email verified successfully")
}

// VerifyCode redeems a six digit email verification code
func (h *Handle) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	lookup := account.Lookup{Email: req.Email}
	if req.UserID != "" {
		id, err := account.ParseID(req.UserID)
		if err != nil {
			common.WriteError(w, r, err)
			return
		}
		lookup.UserID = id
	}

	user, err := h.service.Redeem(r.Context(), lookup, req.Code, account.PurposeEmailVerify)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	h.writeVerified(w, r, user, "Verification successful")
}

// SendVerificationCode mails a new verification code, replacing the pending one
func (h *Handle) SendVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	h.send(w, r, account.PurposeEmailVerify, req.Email, func(ctx context.Context, email string) (verification.Issued, error) {
		return h.mailer.SendVerification(ctx, email, account.KindCode)
	})
}

// ForgotPassword mails a password reset code
func (h *Handle) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	h.send(w, r, account.PurposePasswordReset, req.Email, h.mailer.SendPasswordReset)
}

// VerifyResetCode reports whether a reset code is valid without using it up
func (h *Handle) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req CheckResetCodeRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	if err := h.service.Check(r.Context(), req.Email, req.Code, account.PurposePasswordReset); err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, common.MessageResponse{Message: "Verification successful"})
}

// ResetPassword redeems a reset code and stores the new password
func (h *Handle) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, r, err)
		return
	}
	_, err := h.service.Redeem(r.Context(), account.Lookup{Email: req.Email}, req.Code,
		account.PurposePasswordReset, verification.WithNewPassword(req.NewPassword))
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, common.MessageResponse{Message: "Password has been reset successfully."})
}

// CheckVerification lets a client poll until the email is verified. It only
// reports the flag; signing in still goes through the account's own origin.
func (h *Handle) CheckVerification(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		common.WriteError(w, r, errors.InvalidInput("email", "is required"))
		return
	}
	verified, err := h.accounts.VerificationStatus(r.Context(), email)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, VerificationStatusResponse{Verified: verified})
}

type sendFunc func(ctx context.Context, email string) (verification.Issued, error)

// send runs a cooldown-gated issue and delivery. A failed attempt does not
// count against the cooldown.
func (h *Handle) send(w http.ResponseWriter, r *http.Request, purpose account.SecretPurpose, email string, fn sendFunc) {
	ctx := r.Context()
	key := ratelimit.Key(string(purpose), account.NormalizeEmail(email))
	allowed, retryAfter, err := h.cooldown.Allow(ctx, key)
	if err != nil {
		common.WriteError(w, r, errors.InternalWrap(err, "failed to check cooldown"))
		return
	}
	if !allowed {
		ratelimit.WriteLimited(w, r, retryAfter)
		return
	}

	issued, err := fn(ctx, email)
	if err != nil {
		if resetErr := h.cooldown.Reset(ctx, key); resetErr != nil {
			slog.Error("Failed to reset cooldown", "key", key, "error", resetErr)
		}
		common.WriteError(w, r, err)
		return
	}

	common.WriteJSON(w, r, http.StatusOK, SentResponse{
		Message:    "Verification code sent to email.",
		ExpiresIn:  int(issued.TTL.Seconds()),
		RetryAfter: int(h.cooldown.Period().Seconds()),
	})
}

func (h *Handle) writeVerified(w http.ResponseWriter, r *http.Request, user *account.User, message string) {
	session, err := h.sessions.Issue(w, user)
	if err != nil {
		common.WriteError(w, r, err)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, VerifiedResponse{Message: message, SessionResponse: session})
}
