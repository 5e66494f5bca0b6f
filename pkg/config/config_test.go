package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "/api/v1/auth", cfg.Server.APIPrefix)
		assert.Equal(t, EmailDriverGoMail, cfg.Email.Driver)
		assert.Equal(t, 10*time.Second, cfg.Email.SendTimeout)
		assert.Equal(t, 720*time.Hour, cfg.JWT.AccessTokenExpiry)
		assert.Equal(t, time.Hour, cfg.Verification.EmailLinkTTL)
		assert.Equal(t, 10*time.Minute, cfg.Verification.EmailCodeTTL)
		assert.Equal(t, 10*time.Minute, cfg.Verification.ResetCodeTTL)
		assert.Equal(t, 60*time.Second, cfg.RateLimit.ResendCooldown)
		assert.Equal(t, 5*time.Second, cfg.Geo.Timeout)
		assert.Equal(t, AuditSinkLog, cfg.Audit.Sink)
	})

	t.Run("EnvFile", func(t *testing.T) {
		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("PASSWORD_RESET_CODE_TTL=15m\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("PASSWORD_RESET_CODE_TTL") })

		cfg, err := Load(envFile)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, cfg.Verification.ResetCodeTTL)
	})

	t.Run("MissingEnvFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
		assert.NoError(t, err)
	})

	t.Run("InvalidDriver", func(t *testing.T) {
		t.Setenv("EMAIL_DRIVER", "pigeon")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EMAIL_DRIVER")
	})

	t.Run("InvalidAuditSink", func(t *testing.T) {
		t.Setenv("AUDIT_SINK", "kafka")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AUDIT_SINK")
	})

	t.Run("InvalidPrefix", func(t *testing.T) {
		t.Setenv("API_PREFIX", "api")
		t.Setenv("LOG_FORMAT", "xml")
		_, err := Load("")
		require.Error(t, err)

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Len(t, verrs, 2)
	})
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_BOOL", "yes")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BOOL_OFF", "off")
	t.Setenv("TEST_BAD_DURATION", "soon")

	assert.True(t, GetEnvBool("TEST_BOOL", false))
	assert.False(t, GetEnvBool("TEST_BOOL_UNSET", false))
	assert.Equal(t, 90*time.Second, GetEnvDuration("TEST_DURATION", time.Second))
	assert.False(t, GetEnvBool("TEST_BOOL_OFF", true))
	assert.Equal(t, time.Minute, GetEnvDuration("TEST_BAD_DURATION", time.Minute))
	assert.Equal(t, "fallback", GetEnvOrDefault("TEST_UNSET", "fallback"))
}

func TestNewLogger(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "info", Format: LogFormatText}, &buf)
		logger.Info("Code issued", "purpose", "password_reset")
		assert.Contains(t, buf.String(), "purpose=password_reset")
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "debug", Format: LogFormatJSON}, &buf)
		logger.Debug("Code issued", "purpose", "email_verify")
		assert.Contains(t, buf.String(), `"purpose":"email_verify"`)
	})

	t.Run("LevelFilter", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: "error", Format: LogFormatText}, &buf)
		logger.Info("hidden")
		assert.Empty(t, buf.String())
	})
}
