package common

import (
	"net/http"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/errors"
	"github.com/tendant/dental-idm/pkg/tokengenerator"
)

// SessionResponse is returned by every endpoint that signs a user in
type SessionResponse struct {
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
	Created bool         `json:"created,omitempty"`
}

// SessionIssuer signs session tokens and sets the session cookie
type SessionIssuer struct {
	tokens  *tokengenerator.JwtTokenGenerator
	cookies *tokengenerator.CookieSetter
}

func NewSessionIssuer(tokens *tokengenerator.JwtTokenGenerator, cookies *tokengenerator.CookieSetter) *SessionIssuer {
	return &SessionIssuer{tokens: tokens, cookies: cookies}
}

// Issue signs a token for u. The cookie is only set when w is not nil.
func (s *SessionIssuer) Issue(w http.ResponseWriter, u *account.User) (SessionResponse, error) {
	token, err := s.tokens.GenerateToken(tokengenerator.Subject{
		ID:            u.ID.Hex(),
		Email:         u.Email,
		EmailVerified: u.Verified,
		Role:          string(u.Role),
	})
	if err != nil {
		return SessionResponse{}, errors.InternalWrap(err, "failed to sign token")
	}
	user, err := NewUserResponse(u)
	if err != nil {
		return SessionResponse{}, errors.InternalWrap(err, "failed to map user")
	}
	if w != nil && s.cookies != nil {
		s.cookies.SetCookie(w, token)
	}
	return SessionResponse{User: user, Token: token.Token}, nil
}
