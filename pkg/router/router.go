package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/dental-idm/pkg/client"
	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/errors"
	externalproviderapi "github.com/tendant/dental-idm/pkg/externalprovider/api"
	"github.com/tendant/dental-idm/pkg/iam"
	"github.com/tendant/dental-idm/pkg/login"
	"github.com/tendant/dental-idm/pkg/profile"
	"github.com/tendant/dental-idm/pkg/signup"
	verificationapi "github.com/tendant/dental-idm/pkg/verification/api"
)

// DefaultPrefix is where the auth API is mounted when Config.Prefix is empty
const DefaultPrefix = "/api/v1/auth"

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds all the dependencies and handlers needed to setup routes
type Config struct {
	Prefix string

	LoginHandle        *login.Handle
	SignupHandle       *signup.Handle
	VerificationHandle *verificationapi.Handle
	AdminHandle        *iam.Handle
	ProfileHandle      *profile.Handle
	// ExternalProviderHandle is nil when Google sign-in is not configured
	ExternalProviderHandle *externalproviderapi.Handle

	Authenticator *client.Authenticator

	// RateLimit wraps every auth route when set
	RateLimit func(http.Handler) http.Handler
	// Audit wraps every authenticated route when set
	Audit func(http.Handler) http.Handler
	// Health is pinged by GET /healthz when set
	Health Pinger
}

// SetupRoutes mounts all auth routes on the provided router
func SetupRoutes(router chi.Router, cfg Config) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	router.Get("/healthz", healthz(cfg.Health))

	router.Route(prefix, func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}

		// public routes
		cfg.SignupHandle.Routes(r)
		cfg.LoginHandle.Routes(r)
		cfg.VerificationHandle.Routes(r)
		if cfg.ExternalProviderHandle != nil {
			r.Route("/oauth", cfg.ExternalProviderHandle.Routes)
		} else {
			slog.Info("Google sign-in routes disabled")
		}

		// authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(cfg.Authenticator.Verifier())
			r.Use(cfg.Authenticator.RequireAuth)
			if cfg.Audit != nil {
				r.Use(cfg.Audit)
			}

			r.Get("/me", cfg.LoginHandle.Me)
			r.Put("/me/password", cfg.ProfileHandle.ChangePassword)
			r.Route("/admin", cfg.AdminHandle.Routes)
		})
	})
}

func healthz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				slog.Error("Health check failed", "error", err)
				common.WriteError(w, r, errors.Wrap(err, errors.ErrCodeTimeout, "storage unavailable"))
				return
			}
		}
		common.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
