package tokengenerator

import (
	"net/http"
	"time"
)

// CookieSetter writes the session token cookie for browser clients
type CookieSetter struct {
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

// NewCookieSetter creates a new cookie setter
func NewCookieSetter(secure bool) *CookieSetter {
	return &CookieSetter{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetCookie sets the access token cookie
func (c *CookieSetter) SetCookie(w http.ResponseWriter, token TokenValue) {
	http.SetCookie(w, &http.Cookie{
		Name:     ACCESS_TOKEN_NAME,
		Path:     c.Path,
		Value:    token.Token,
		Expires:  token.Expiry,
		HttpOnly: c.HttpOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// ClearCookie clears the access token cookie
func (c *CookieSetter) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     ACCESS_TOKEN_NAME,
		Path:     c.Path,
		Value:    "",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: c.HttpOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// TokenFromCookie reads the access token cookie; it plugs into jwtauth.Verify
func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(ACCESS_TOKEN_NAME)
	if err != nil {
		return ""
	}
	return cookie.Value
}
