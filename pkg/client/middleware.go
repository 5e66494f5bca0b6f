package client

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/errors"
	"github.com/tendant/dental-idm/pkg/tokengenerator"
)

// UserLoader loads the account named by a token subject
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*account.User, error)
}

// Authenticator turns verified session tokens into an AuthUser
type Authenticator struct {
	tokenAuth *jwtauth.JWTAuth
	users     UserLoader
}

func NewAuthenticator(tokenAuth *jwtauth.JWTAuth, users UserLoader) *Authenticator {
	return &Authenticator{tokenAuth: tokenAuth, users: users}
}

// Verifier reads the token from the Authorization header or the access
// token cookie and verifies it
func (a *Authenticator) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verify(a.tokenAuth, jwtauth.TokenFromHeader, tokengenerator.TokenFromCookie)
}

// RequireAuth rejects requests without a valid session. Tokens issued
// before the last password change are refused, as are blocked accounts.
// Must be used after Verifier.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			slog.Debug("Unauthenticated request to protected resource", "error", err)
			common.WriteError(w, r, errors.Unauthorized("authentication required"))
			return
		}

		user, err := a.users.GetByID(r.Context(), token.Subject())
		if err != nil {
			if stderrors.Is(err, account.ErrUserNotFound) || errors.IsCode(err, errors.ErrCodeValidationFailed) {
				common.WriteError(w, r, errors.Unauthorized("authentication required"))
				return
			}
			common.WriteError(w, r, err)
			return
		}
		if user.PasswordChangedAt != nil && token.IssuedAt().Before(user.PasswordChangedAt.Truncate(time.Second)) {
			slog.Info("Rejected token issued before password change", "user_id", user.ID.Hex())
			common.WriteError(w, r, errors.Unauthorized("session expired, sign in again"))
			return
		}
		if user.Blocked || !user.Active {
			common.WriteError(w, r, account.ErrBlocked)
			return
		}

		authUser := &AuthUser{
			UserID: user.ID.Hex(),
			Email:  user.Email,
			Role:   user.Role,
			User:   user,
		}
		next.ServeHTTP(w, r.WithContext(WithAuthUser(r.Context(), authUser)))
	})
}

// RequireRole returns a middleware that checks the caller holds one of
// roles. Must be used after RequireAuth.
func RequireRole(roles ...account.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authUser, ok := GetAuthUser(r)
			if !ok {
				common.WriteError(w, r, errors.Unauthorized("authentication required"))
				return
			}
			for _, role := range roles {
				if authUser.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			slog.Warn("User lacks required role", "user", authUser, "requiredRoles", roles)
			common.WriteError(w, r, errors.Forbidden("insufficient permissions"))
		})
	}
}
