package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tendant/dental-idm/pkg/account"
)

// AuthUser is the caller resolved from a verified session token
type AuthUser struct {
	UserID string
	Email  string
	Role   account.Role
	User   *account.User
}

func (i AuthUser) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user", i.UserID),
		slog.String("role", string(i.Role)),
	)
}

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "dental-idm context value " + k.name
}

var (
	AuthUserKey = &contextKey{"AuthUser"}
)

// WithAuthUser stores user in ctx
func WithAuthUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, AuthUserKey, user)
}

// GetAuthUser returns the caller stored by RequireAuth
func GetAuthUser(r *http.Request) (*AuthUser, bool) {
	user, ok := r.Context().Value(AuthUserKey).(*AuthUser)
	return user, ok && user != nil
}

// IsAdmin reports whether user currently holds the admin role
func IsAdmin(user *AuthUser) bool {
	return user != nil && user.Role == account.RoleAdmin
}
