package config

import "time"

// JWTConfig holds JWT session token configuration.
// The 30 day default matches the session lifetime of the web client.
type JWTConfig struct {
	Secret            string        `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer            string        `env:"JWT_ISSUER" env-default:"dental-idm"`
	Audience          string        `env:"JWT_AUDIENCE" env-default:"dental-web"`
	AccessTokenExpiry time.Duration `env:"ACCESS_TOKEN_EXPIRY" env-default:"720h"`
}
