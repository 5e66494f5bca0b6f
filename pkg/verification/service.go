package verification

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/errors"
)

// Issued is a freshly stored secret. Secret is the only copy of the
// plaintext and must be delivered by the caller.
type Issued struct {
	User      *account.User
	Purpose   account.SecretPurpose
	Kind      account.SecretKind
	Secret    string
	TTL       time.Duration
	ExpiresAt time.Time
}

// Service issues and redeems single-use secrets stored on account records
type Service struct {
	repo      account.Repository
	hasher    account.PasswordHasher
	generator Generator
	policy    Policy
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithGenerator replaces the crypto/rand secret generator
func WithGenerator(g Generator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithPolicy sets secret lifetimes
func WithPolicy(p Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithPasswordHasher sets the hasher used when a redeem also sets a password.
// It should be the one the account service uses.
func WithPasswordHasher(h account.PasswordHasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

// NewService creates a verification service on top of repo
func NewService(repo account.Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		hasher:    account.NewBcryptHasher(account.DefaultBcryptCost),
		generator: RandomGenerator{},
		policy:    DefaultPolicy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the configured lifetimes
func (s *Service) Policy() Policy {
	return s.policy
}

// Issue generates a secret for the account registered under email and stores
// its hash under purpose, replacing any pending secret of that purpose.
// Verification secrets are refused for verified accounts and reset codes
// for Google accounts.
func (s *Service) Issue(ctx context.Context, email string, purpose account.SecretPurpose, kind account.SecretKind) (Issued, error) {
	if purpose == account.PurposePasswordReset && kind != account.KindCode {
		return Issued{}, errors.InvalidInput("kind", "password reset uses codes")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return Issued{}, s.repoError(err, email)
	}
	switch purpose {
	case account.PurposeEmailVerify:
		if user.Verified {
			return Issued{}, ErrAlreadyVerified
		}
	case account.PurposePasswordReset:
		if user.IsOAuth() {
			return Issued{}, account.ErrWrongOrigin
		}
	default:
		return Issued{}, errors.InvalidInput("purpose", fmt.Sprintf("unknown purpose %q", purpose))
	}

	plain, err := s.generator.Generate(kind)
	if err != nil {
		return Issued{}, errors.InternalWrap(err, "failed to generate secret")
	}

	now := s.now().UTC()
	ttl := s.policy.TTL(purpose, kind)
	secret := account.Secret{
		Kind:      kind,
		Hash:      HashSecret(plain),
		ExpiresAt: now.Add(ttl),
		IssuedAt:  now,
	}
	if err := s.repo.SetSecret(ctx, user.ID, purpose, secret); err != nil {
		return Issued{}, s.repoError(err, user.ID.Hex())
	}

	slog.Info("Secret issued", "user_id", user.ID.Hex(), "purpose", purpose, "kind", kind, "expires_at", secret.ExpiresAt)
	return Issued{
		User:      user,
		Purpose:   purpose,
		Kind:      kind,
		Secret:    plain,
		TTL:       ttl,
		ExpiresAt: secret.ExpiresAt,
	}, nil
}

type redeemOptions struct {
	kind        account.SecretKind
	newPassword string
}

// RedeemOption adjusts a Redeem call
type RedeemOption func(*redeemOptions)

// WithKind redeems a secret of kind instead of a code
func WithKind(kind account.SecretKind) RedeemOption {
	return func(o *redeemOptions) {
		o.kind = kind
	}
}

// WithNewPassword stores a new password in the same write that consumes the secret
func WithNewPassword(password string) RedeemOption {
	return func(o *redeemOptions) {
		o.newPassword = password
	}
}

// Redeem consumes the pending secret of purpose on the account selected by
// lookup. Failures are ErrSecretNotFound (or account.ErrUserNotFound),
// ErrExpired and ErrMismatch; on failure nothing is written and the stored
// secret stays valid.
func (s *Service) Redeem(ctx context.Context, lookup account.Lookup, presented string, purpose account.SecretPurpose, opts ...RedeemOption) (*account.User, error) {
	o := redeemOptions{kind: account.KindCode}
	for _, opt := range opts {
		opt(&o)
	}

	if lookup.IsZero() {
		return nil, errors.InvalidInput("email", "email or user_id is required")
	}
	if err := validatePresented(o.kind, presented); err != nil {
		return nil, err
	}

	params := account.RedeemParams{
		Lookup:       lookup,
		Purpose:      purpose,
		Kind:         o.kind,
		Hash:         HashSecret(presented),
		Now:          s.now().UTC(),
		MarkVerified: purpose == account.PurposeEmailVerify,
	}
	if o.newPassword != "" {
		if err := account.ValidatePassword(o.newPassword); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(o.newPassword)
		if err != nil {
			return nil, errors.InternalWrap(err, "failed to hash password")
		}
		params.PasswordHash = hash
	}

	user, err := s.repo.RedeemSecret(ctx, params)
	if err == nil {
		slog.Info("Secret redeemed", "user_id", user.ID.Hex(), "purpose", purpose, "password_changed", params.PasswordHash != "")
		return user, nil
	}
	if !stderrors.Is(err, account.ErrNoMatch) {
		return nil, s.repoError(err, lookupKey(lookup))
	}

	current, err := s.find(ctx, lookup)
	if err != nil {
		return nil, err
	}
	failure := classify(current, purpose, o.kind, params.Hash, params.Now)
	if failure == nil {
		// matched on re-read: another request replaced the secret in between
		failure = ErrMismatch
	}
	slog.Info("Secret redeem rejected", "user_id", current.ID.Hex(), "purpose", purpose, "error", failure)
	return nil, failure
}

// RedeemLink consumes an email verification link token. The token alone
// identifies the account.
func (s *Service) RedeemLink(ctx context.Context, token string) (*account.User, error) {
	if token == "" {
		return nil, invalidToken()
	}

	hash := HashSecret(token)
	now := s.now().UTC()
	user, err := s.repo.RedeemSecret(ctx, account.RedeemParams{
		Purpose:      account.PurposeEmailVerify,
		Kind:         account.KindLink,
		Hash:         hash,
		Now:          now,
		MarkVerified: true,
	})
	if err == nil {
		slog.Info("Email verified by link", "user_id", user.ID.Hex())
		return user, nil
	}
	if !stderrors.Is(err, account.ErrNoMatch) {
		return nil, s.repoError(err, "link")
	}

	holder, err := s.repo.FindBySecretHash(ctx, account.PurposeEmailVerify, hash)
	if stderrors.Is(err, account.ErrUserNotFound) {
		return nil, ErrSecretNotFound
	}
	if err != nil {
		return nil, s.repoError(err, "link")
	}
	if stderrors.Is(classify(holder, account.PurposeEmailVerify, account.KindLink, hash, now), ErrExpired) {
		return nil, ErrExpired
	}
	return nil, ErrSecretNotFound
}

// Check reports whether code would currently redeem the pending secret of
// purpose for email, without consuming it.
func (s *Service) Check(ctx context.Context, email, code string, purpose account.SecretPurpose) error {
	if err := validatePresented(account.KindCode, code); err != nil {
		return err
	}
	user, err := s.find(ctx, account.Lookup{Email: email})
	if err != nil {
		return err
	}
	return classify(user, purpose, account.KindCode, HashSecret(code), s.now().UTC())
}

// classify explains why a presented secret does not redeem. Expiry is
// reported before a mismatch so a stale secret always reads as expired.
// It returns nil when the secret would be accepted.
func classify(user *account.User, purpose account.SecretPurpose, kind account.SecretKind, hash string, now time.Time) error {
	secret, ok := user.PendingSecret(purpose)
	if !ok {
		return ErrSecretNotFound
	}
	if secret.Expired(now) {
		return ErrExpired
	}
	if secret.Kind != kind || secret.Hash != hash {
		return ErrMismatch
	}
	return nil
}

func validatePresented(kind account.SecretKind, presented string) error {
	switch kind {
	case account.KindCode:
		if !ValidCode(presented) {
			return invalidCode()
		}
	case account.KindLink:
		if presented == "" {
			return invalidToken()
		}
	default:
		return errors.InvalidInput("kind", fmt.Sprintf("unknown kind %q", kind))
	}
	return nil
}

func (s *Service) find(ctx context.Context, lookup account.Lookup) (*account.User, error) {
	var (
		user *account.User
		err  error
	)
	if !lookup.UserID.IsZero() {
		user, err = s.repo.FindByID(ctx, lookup.UserID)
		if err == nil && lookup.Email != "" && user.Email != account.NormalizeEmail(lookup.Email) {
			err = account.ErrUserNotFound
		}
	} else {
		user, err = s.repo.FindByEmail(ctx, lookup.Email)
	}
	if err != nil {
		return nil, s.repoError(err, lookupKey(lookup))
	}
	return user, nil
}

func (s *Service) repoError(err error, key string) error {
	if stderrors.Is(err, account.ErrUserNotFound) {
		return account.ErrUserNotFound
	}
	slog.Error("Verification storage error", "key", key, "error", err)
	return errors.InternalWrap(err, "failed to access account")
}

func lookupKey(l account.Lookup) string {
	if !l.UserID.IsZero() {
		return l.UserID.Hex()
	}
	return l.Email
}
