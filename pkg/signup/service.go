package signup

import (
	"context"
	"log/slog"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/errors"
	"github.com/tendant/dental-idm/pkg/geo"
	"github.com/tendant/dental-idm/pkg/verification"
)

// ErrRegistrationDisabled is returned when sign-up is switched off
var ErrRegistrationDisabled = errors.Forbidden("registration is disabled")

// RegisterParams is a password sign-up request
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Age      string
	Country  string
	// ClientIP is used to detect the country when Country is empty
	ClientIP string
}

// Result reports the new account and whether its verification email went out
type Result struct {
	User             *account.User
	VerificationKind account.SecretKind
	VerificationSent bool
}

// SignupService handles user registration
type SignupService struct {
	accounts            *account.AccountService
	mailer              *verification.Mailer
	locator             geo.CountryLocator
	kind                account.SecretKind
	registrationEnabled bool
}

// SignupServiceOption is a functional option for configuring SignupService
type SignupServiceOption func(*SignupService)

// NewSignupService creates a new SignupService with the given options
func NewSignupService(accounts *account.AccountService, opts ...SignupServiceOption) *SignupService {
	s := &SignupService{
		accounts:            accounts,
		kind:                account.KindCode,
		registrationEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithMailer sets the mailer sending the verification email
func WithMailer(m *verification.Mailer) SignupServiceOption {
	return func(s *SignupService) {
		s.mailer = m
	}
}

// WithCountryLocator enables country detection for requests without one
func WithCountryLocator(l geo.CountryLocator) SignupServiceOption {
	return func(s *SignupService) {
		s.locator = l
	}
}

// WithVerificationKind chooses between a link and a code at sign-up
func WithVerificationKind(kind account.SecretKind) SignupServiceOption {
	return func(s *SignupService) {
		s.kind = kind
	}
}

// WithRegistrationEnabled sets whether registration is enabled
func WithRegistrationEnabled(enabled bool) SignupServiceOption {
	return func(s *SignupService) {
		s.registrationEnabled = enabled
	}
}

// Register creates a password account and sends its verification email.
// The account is kept when the email can not be delivered; the user
// requests a new code from the sign-in page.
func (s *SignupService) Register(ctx context.Context, params RegisterParams) (Result, error) {
	if !s.registrationEnabled {
		return Result{}, ErrRegistrationDisabled
	}
	if params.Password == "" {
		return Result{}, errors.InvalidInput("password", "is required")
	}

	country := params.Country
	if country == "" && s.locator != nil {
		country = s.locator.Country(ctx, params.ClientIP)
	}

	user, err := s.accounts.Create(ctx, account.CreateParams{
		Email:    params.Email,
		Password: params.Password,
		Name:     params.Name,
		Age:      params.Age,
		Country:  country,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{User: user, VerificationKind: s.kind}
	if s.mailer == nil {
		return result, nil
	}
	if _, err := s.mailer.SendVerification(ctx, user.Email, s.kind); err != nil {
		slog.Warn("Verification email not sent at signup", "user_id", user.ID.Hex(), "kind", s.kind, "error", err)
		return result, nil
	}
	result.VerificationSent = true
	return result, nil
}
