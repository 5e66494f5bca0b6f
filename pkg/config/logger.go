package config

import (
	"io"
	"log/slog"
	"strings"

	phuslog "github.com/phuslu/log"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// SlogLevel maps LOG_LEVEL to a slog.Level, defaulting to info
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a slog.Logger writing to w. Text output mirrors the
// development setup (source locations included); json output goes through
// phuslu/log's slog handler.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     cfg.SlogLevel(),
	}
	if cfg.Format == LogFormatJSON {
		return slog.New(phuslog.SlogNewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
