package config

import "time"

// GoogleConfig contains Google OAuth2 settings.
type GoogleConfig struct {
	ClientID     string        `env:"GOOGLE_CLIENT_ID" env-default:""`
	ClientSecret string        `env:"GOOGLE_CLIENT_SECRET" env-default:""`
	RedirectURL  string        `env:"GOOGLE_REDIRECT_URL" env-default:"http://localhost:4000/api/v1/auth/oauth/google/callback"`
	StateTTL     time.Duration `env:"OAUTH_STATE_TTL" env-default:"10m"`
}

// IsConfigured returns true if Google OAuth2 credentials are set
func (g GoogleConfig) IsConfigured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// GeoConfig configures the signup country lookup.
// An empty LookupURL disables the lookup and DefaultCountry is used.
type GeoConfig struct {
	LookupURL      string        `env:"GEO_LOOKUP_URL" env-default:"https://ipwho.is"`
	Timeout        time.Duration `env:"GEO_TIMEOUT" env-default:"5s"`
	DefaultCountry string        `env:"GEO_DEFAULT_COUNTRY" env-default:"Unknown"`
}
