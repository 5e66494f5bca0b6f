package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
)

// ServerConfig holds public URLs and the mount point of the auth API
type ServerConfig struct {
	BaseURL     string `env:"BASE_URL" env-default:"http://localhost:4000"`
	FrontendURL string `env:"FRONTEND_URL" env-default:"http://localhost:3000"`
	APIPrefix   string `env:"API_PREFIX" env-default:"/api/v1/auth"`
	// VerifiedRedirectPath is appended to FrontendURL after a successful
	// link verification. Empty means answer with JSON instead of redirecting.
	VerifiedRedirectPath string `env:"VERIFIED_REDIRECT_PATH" env-default:""`
}

// BootstrapConfig names the administrator ensured at startup
type BootstrapConfig struct {
	AdminEmail    string `env:"ADMIN_EMAIL" env-default:""`
	AdminPassword string `env:"ADMIN_PASSWORD" env-default:""`
	AdminName     string `env:"ADMIN_NAME" env-default:"Administrator"`
}

// Config is the complete service configuration read from the environment
type Config struct {
	Server       ServerConfig
	Mongo        MongoConfig
	Email        EmailConfig
	JWT          JWTConfig
	Verification VerificationConfig
	Google       GoogleConfig
	Geo          GeoConfig
	RateLimit    RateLimitConfig
	Log          LogConfig
	Bootstrap    BootstrapConfig
	Audit        AuditConfig

	// Host and port for chi-demo
	AppConfig app.AppConfig
}

// Load reads an optional .env file and then the environment into a Config.
// A missing .env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			slog.Info("Loading configuration from .env file", "path", envFile)
			if err := godotenv.Load(envFile); err != nil {
				slog.Warn("Failed to load .env file", "path", envFile, "error", err)
			}
		} else {
			slog.Debug("No .env file found (using environment variables or defaults)", "path", envFile)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values cleanenv cannot check on its own
func (c Config) Validate() error {
	return Validate(
		func() ValidationErrors {
			return CollectErrors(
				RequireValidURL("BASE_URL", c.Server.BaseURL),
				RequireValidURL("FRONTEND_URL", c.Server.FrontendURL),
				RequirePathPrefix("API_PREFIX", c.Server.APIPrefix),
				RequireNonEmpty("MONGO_URI", c.Mongo.URI),
				RequireNonEmpty("MONGO_DATABASE", c.Mongo.Database),
			)
		},
		func() ValidationErrors {
			return CollectErrors(
				RequireOneOf("EMAIL_DRIVER", c.Email.Driver, []string{EmailDriverGoMail, EmailDriverMailyak, EmailDriverLog}),
				RequirePositiveDuration("EMAIL_SEND_TIMEOUT", c.Email.SendTimeout),
				RequireNonEmpty("JWT_SECRET", c.JWT.Secret),
				RequirePositiveDuration("ACCESS_TOKEN_EXPIRY", c.JWT.AccessTokenExpiry),
			)
		},
		func() ValidationErrors {
			return CollectErrors(
				RequirePositiveDuration("EMAIL_VERIFY_LINK_TTL", c.Verification.EmailLinkTTL),
				RequirePositiveDuration("EMAIL_VERIFY_CODE_TTL", c.Verification.EmailCodeTTL),
				RequirePositiveDuration("PASSWORD_RESET_CODE_TTL", c.Verification.ResetCodeTTL),
				RequireNonNegativeDuration("RESEND_COOLDOWN", c.RateLimit.ResendCooldown),
				RequireOneOf("LOG_FORMAT", c.Log.Format, []string{LogFormatText, LogFormatJSON}),
				RequireOneOf("AUDIT_SINK", c.Audit.Sink, []string{AuditSinkLog, AuditSinkMongo, AuditSinkNone}),
			)
		},
	)
}
