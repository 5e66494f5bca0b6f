package config

import "time"

// RateLimitConfig contains rate limiting settings.
//
// Auth is an ulule/limiter formatted rate ("<limit>-<S|M|H|D>") applied per
// client IP to the whole auth router. ResendCooldown is the minimum spacing
// between two emails for the same address and purpose.
type RateLimitConfig struct {
	Enabled            bool          `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Auth               string        `env:"RATE_LIMIT_AUTH" env-default:"20-M"`
	ResendCooldown     time.Duration `env:"RESEND_COOLDOWN" env-default:"60s"`
	TrustForwardHeader bool          `env:"RATE_LIMIT_TRUST_FORWARD_HEADER" env-default:"false"`
}

// VerificationConfig holds lifetimes of issued secrets.
type VerificationConfig struct {
	EmailLinkTTL  time.Duration `env:"EMAIL_VERIFY_LINK_TTL" env-default:"1h"`
	EmailCodeTTL  time.Duration `env:"EMAIL_VERIFY_CODE_TTL" env-default:"10m"`
	ResetCodeTTL  time.Duration `env:"PASSWORD_RESET_CODE_TTL" env-default:"10m"`
	SignupUseLink bool          `env:"SIGNUP_VERIFY_WITH_LINK" env-default:"false"`
}
