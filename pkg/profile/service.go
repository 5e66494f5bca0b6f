package profile

import (
	"context"
	"log/slog"
	"time"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/errors"
	"github.com/tendant/dental-idm/pkg/notification"
)

type ProfileService struct {
	accounts            *account.AccountService
	notificationManager *notification.NotificationManager
}

type Option func(*ProfileService)

// WithNotificationManager sends a password changed email after each change
func WithNotificationManager(nm *notification.NotificationManager) Option {
	return func(s *ProfileService) {
		s.notificationManager = nm
	}
}

func NewProfileService(accounts *account.AccountService, opts ...Option) *ProfileService {
	s := &ProfileService{accounts: accounts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type UpdatePasswordParams struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// UpdatePassword replaces the password of a password account after checking
// the current one, and returns the updated account.
func (s *ProfileService) UpdatePassword(ctx context.Context, params UpdatePasswordParams) (*account.User, error) {
	user, err := s.accounts.GetByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsOAuth() {
		return nil, account.ErrWrongOrigin
	}

	ok, err := s.accounts.Hasher().Verify(params.CurrentPassword, user.PasswordHash)
	if err != nil {
		slog.Error("Failed to verify current password", "user_id", params.UserID, "error", err)
		return nil, errors.InternalWrap(err, "failed to verify password")
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeBadCredential, "current password is incorrect")
	}
	if params.CurrentPassword == params.NewPassword {
		return nil, errors.InvalidInput("new_password", "new password must be different from the current password")
	}

	if err := s.accounts.UpdatePassword(ctx, user.ID, params.NewPassword); err != nil {
		return nil, err
	}

	updated, err := s.accounts.GetByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, updated)
	return updated, nil
}

// notify is best effort: the password is already changed
func (s *ProfileService) notify(ctx context.Context, user *account.User) {
	if s.notificationManager == nil {
		return
	}
	changedAt := time.Now().UTC()
	if user.PasswordChangedAt != nil {
		changedAt = user.PasswordChangedAt.UTC()
	}
	err := s.notificationManager.Send(ctx, notification.PasswordChangedNotice, user.Email, map[string]string{
		"Name":      user.Name,
		"ChangedAt": changedAt.Format(time.RFC1123),
	})
	if err != nil {
		slog.Warn("Failed to send password changed notice", "user_id", user.ID.Hex(), "error", err)
	}
}
