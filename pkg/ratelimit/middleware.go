package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/errors"
)

// Config holds rate limiting configuration
type Config struct {
	Enabled bool
	// Rate in limiter format, e.g. "20-M" for 20 requests per minute
	Rate string
	// TrustForwardHeader keys clients by X-Forwarded-For / X-Real-IP
	TrustForwardHeader bool
}

// NewMiddleware returns a per-client-IP limiter for the auth endpoints
func NewMiddleware(cfg Config) (func(http.Handler) http.Handler, error) {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", cfg.Rate, err)
	}

	instance := limiter.New(memory.NewStore(), rate, limiter.WithTrustForwardHeader(cfg.TrustForwardHeader))
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(limitReached(rate.Period)),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("Rate limiter store failed", "path", r.URL.Path, "error", err)
			common.WriteError(w, r, err)
		}),
	)
	return mw.Handler, nil
}

func limitReached(period time.Duration) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("Rate limit exceeded", "path", r.URL.Path, "method", r.Method, "remote", r.RemoteAddr)
		WriteLimited(w, r, period)
	}
}

// WriteLimited writes a 429 with a Retry-After header
func WriteLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	common.WriteError(w, r, errors.RateLimitExceeded(strconv.Itoa(seconds)))
}
