package account

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tendant/dental-idm/pkg/errors"
)

// MinPasswordLength is the shortest password accepted at signup and reset
const MinPasswordLength = 8

const defaultName = "User"

// AccountService manages credentials and account state
type AccountService struct {
	repo   Repository
	hasher PasswordHasher
	now    func() time.Time
}

// Option configures an AccountService
type Option func(*AccountService)

// WithPasswordHasher overrides the bcrypt hasher
func WithPasswordHasher(h PasswordHasher) Option {
	return func(s *AccountService) {
		s.hasher = h
	}
}

// WithClock sets the time source, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *AccountService) {
		s.now = now
	}
}

// NewAccountService creates an account service on top of repo
func NewAccountService(repo Repository, opts ...Option) *AccountService {
	s := &AccountService{
		repo:   repo,
		hasher: NewBcryptHasher(DefaultBcryptCost),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hasher exposes the password hasher so reset flows hash the same way
func (s *AccountService) Hasher() PasswordHasher {
	return s.hasher
}

// CreateParams holds the fields accepted at account creation.
// An empty Password creates a Google account.
type CreateParams struct {
	Email    string
	Password string
	Name     string
	Age      string
	Country  string
	Picture  string
	GoogleID string
}

// ValidatePassword rejects passwords that can not be stored
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.InvalidInput("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// Create stores a new account. Password accounts start unverified and get
// a bcrypt hash; accounts without a password originate from Google and are
// verified on creation.
func (s *AccountService) Create(ctx context.Context, params CreateParams) (*User, error) {
	email := NormalizeEmail(params.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.InvalidInput("email", "a valid email address is required")
	}

	now := s.now().UTC()
	name := strings.TrimSpace(params.Name)
	if name == "" {
		name = defaultName
	}

	user := &User{
		Email:     email,
		Name:      name,
		Age:       params.Age,
		Country:   params.Country,
		Picture:   params.Picture,
		Active:    true,
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if params.Password != "" {
		if err := ValidatePassword(params.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(params.Password)
		if err != nil {
			return nil, errors.InternalWrap(err, "failed to hash password")
		}
		user.PasswordHash = hash
		user.Origin = OriginPassword
		if user.Picture == "" {
			user.Picture = AvatarURL(name)
		}
	} else {
		user.Origin = OriginGoogle
		user.GoogleID = params.GoogleID
		user.Verified = true
		user.VerifiedAt = &now
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		if stderrors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		slog.Error("Failed to insert user", "email", email, "error", err)
		return nil, errors.InternalWrap(err, "failed to create user")
	}

	slog.Info("User created", "user_id", user.ID.Hex(), "origin", user.Origin)
	return user, nil
}

// Authenticate checks email and password. Failures are reported in a fixed
// order: NotFound, WrongOrigin, Blocked, BadCredential, Unverified. Google
// accounts are rejected before any hash comparison. Unverified is only
// reported for the right password, so the account id it carries never goes
// to a caller that does not hold the credential. The account is returned
// with WrongOrigin, Blocked and Unverified so callers can route the user
// (for example to code entry).
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.lookupError(err, email)
	}
	if user.IsOAuth() {
		return user, ErrWrongOrigin
	}
	if user.Blocked || !user.Active {
		return user, ErrBlocked
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		slog.Error("Failed to verify password", "user_id", user.ID.Hex(), "error", err)
		return nil, errors.InternalWrap(err, "failed to verify password")
	}
	if !ok {
		return nil, ErrBadCredential
	}
	if !user.Verified {
		return user, ErrUnverified
	}
	return user, nil
}

// UpdatePassword re-hashes and stores a new password, dropping any pending
// reset secret in the same write.
func (s *AccountService) UpdatePassword(ctx context.Context, userID primitive.ObjectID, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errors.InternalWrap(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash, s.now().UTC()); err != nil {
		return s.lookupError(err, userID.Hex())
	}
	slog.Info("Password updated", "user_id", userID.Hex())
	return nil
}

// OAuthProfile is the identity returned by an OAuth provider
type OAuthProfile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// ProvisionOAuth returns the Google account for profile, creating it on
// first sign-in. created reports whether a new account was inserted. A
// password account with the same email yields ErrWrongOrigin.
func (s *AccountService) ProvisionOAuth(ctx context.Context, profile OAuthProfile) (*User, bool, error) {
	user, err := s.repo.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if !user.IsOAuth() {
			return nil, false, ErrWrongOrigin
		}
		if user.Blocked || !user.Active {
			return nil, false, ErrBlocked
		}
		if (user.GoogleID == "" && profile.Subject != "") || (user.Picture == "" && profile.Picture != "") {
			googleID, picture := "", ""
			if user.GoogleID == "" {
				googleID = profile.Subject
				user.GoogleID = googleID
			}
			if user.Picture == "" {
				picture = profile.Picture
				user.Picture = picture
			}
			if err := s.repo.LinkGoogle(ctx, user.ID, googleID, picture, s.now().UTC()); err != nil {
				return nil, false, s.lookupError(err, user.ID.Hex())
			}
		}
		return user, false, nil
	case stderrors.Is(err, ErrUserNotFound):
		// first sign-in
	default:
		return nil, false, s.lookupError(err, profile.Email)
	}

	user, err = s.Create(ctx, CreateParams{
		Email:    profile.Email,
		Name:     profile.Name,
		Picture:  profile.Picture,
		GoogleID: profile.Subject,
	})
	if stderrors.Is(err, ErrEmailTaken) {
		// Lost a race with a concurrent first sign-in; use the winner's record.
		existing, findErr := s.repo.FindByEmail(ctx, profile.Email)
		if findErr != nil {
			return nil, false, s.lookupError(findErr, profile.Email)
		}
		if !existing.IsOAuth() {
			return nil, false, ErrWrongOrigin
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// GetByEmail returns the account registered under email
func (s *AccountService) GetByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.lookupError(err, email)
	}
	return user, nil
}

// GetByID returns the account with the given hex id
func (s *AccountService) GetByID(ctx context.Context, id string) (*User, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, s.lookupError(err, id)
	}
	return user, nil
}

// SetRole changes the role of an account
func (s *AccountService) SetRole(ctx context.Context, id string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, errors.InvalidInput("role", "must be admin or user")
	}
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.SetRole(ctx, oid, role, s.now().UTC())
	if err != nil {
		return nil, s.lookupError(err, id)
	}
	slog.Info("User role changed", "user_id", id, "role", role)
	return user, nil
}

// SetBlocked blocks or unblocks an account
func (s *AccountService) SetBlocked(ctx context.Context, id string, blocked bool) (*User, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.SetBlocked(ctx, oid, blocked, s.now().UTC())
	if err != nil {
		return nil, s.lookupError(err, id)
	}
	slog.Info("User block state changed", "user_id", id, "blocked", blocked)
	return user, nil
}

// VerificationStatus reports whether the email has been verified
func (s *AccountService) VerificationStatus(ctx context.Context, email string) (bool, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return user.Verified, nil
}

// ParseID parses a hex ObjectID, reporting bad input as a validation error
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errors.InvalidInput("user_id", "not a valid id")
	}
	return oid, nil
}

func (s *AccountService) lookupError(err error, key string) error {
	if stderrors.Is(err, ErrUserNotFound) {
		return ErrUserNotFound
	}
	slog.Error("User lookup failed", "key", key, "error", err)
	return errors.InternalWrap(err, "failed to load user")
}
