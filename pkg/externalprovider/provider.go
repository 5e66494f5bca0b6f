package externalprovider

import (
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL is the v2 userinfo endpoint; it reports verified_email
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// DefaultScopes are requested on every authorization
var DefaultScopes = []string{"openid", "email", "profile"}

// ProviderConfig holds the Google OAuth client registration
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// ExternalUserInfo is the profile returned by the provider's userinfo endpoint
type ExternalUserInfo struct {
	ExternalID    string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// parseUserInfo reads a userinfo document. Both the v2 field names and
// their OpenID Connect equivalents are accepted.
func parseUserInfo(raw map[string]interface{}) ExternalUserInfo {
	info := ExternalUserInfo{
		ExternalID: stringValue(raw, "id"),
		Email:      strings.TrimSpace(stringValue(raw, "email")),
		Name:       stringValue(raw, "name"),
		Picture:    stringValue(raw, "picture"),
	}
	if info.ExternalID == "" {
		info.ExternalID = stringValue(raw, "sub")
	}
	info.EmailVerified = boolValue(raw, "verified_email") || boolValue(raw, "email_verified")
	return info
}

func newOAuth2Config(cfg ProviderConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       DefaultScopes,
		Endpoint:     google.Endpoint,
	}
}

func stringValue(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolValue(m map[string]interface{}, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
