package login

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/errors"
)

// LoginService signs password accounts in
type LoginService struct {
	accounts *account.AccountService
}

func NewLoginService(accounts *account.AccountService) *LoginService {
	return &LoginService{accounts: accounts}
}

// Login authenticates email and password. For an unverified account the
// user is returned along with account.ErrUnverified so the caller can send
// the user to code entry.
func (s *LoginService) Login(ctx context.Context, email, password string) (*account.User, error) {
	if email == "" {
		return nil, errors.InvalidInput("email", "is required")
	}
	user, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeInternal {
			return nil, err
		}
		slog.Info("Login rejected", "email", account.NormalizeEmail(email), "code", errors.GetCode(err))
		if stderrors.Is(err, account.ErrUnverified) {
			return user, err
		}
		return nil, err
	}
	slog.Info("Login successful", "user_id", user.ID.Hex())
	return user, nil
}
