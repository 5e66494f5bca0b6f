package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/audit"
	"github.com/tendant/dental-idm/pkg/bootstrap"
	"github.com/tendant/dental-idm/pkg/client"
	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/config"
	"github.com/tendant/dental-idm/pkg/externalprovider"
	externalproviderapi "github.com/tendant/dental-idm/pkg/externalprovider/api"
	"github.com/tendant/dental-idm/pkg/geo"
	"github.com/tendant/dental-idm/pkg/iam"
	"github.com/tendant/dental-idm/pkg/login"
	"github.com/tendant/dental-idm/pkg/mongodb"
	"github.com/tendant/dental-idm/pkg/notification"
	"github.com/tendant/dental-idm/pkg/profile"
	"github.com/tendant/dental-idm/pkg/ratelimit"
	"github.com/tendant/dental-idm/pkg/router"
	"github.com/tendant/dental-idm/pkg/signup"
	"github.com/tendant/dental-idm/pkg/tokengenerator"
	"github.com/tendant/dental-idm/pkg/verification"
	verificationapi "github.com/tendant/dental-idm/pkg/verification/api"
)

func main() {
	envFile := flag.String("env", config.GetEnvOrDefault("IDM_ENV_FILE", ".env"), "path of an optional .env file (env IDM_ENV_FILE)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(config.NewLogger(cfg.Log, os.Stdout))
	slog.Info("Starting Dental IDM Service", "base_url", cfg.Server.BaseURL, "prefix", cfg.Server.APIPrefix)

	ctx := context.Background()
	store, err := mongodb.Connect(ctx, cfg.Mongo.ToStoreConfig())
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "uri", cfg.Mongo.URI, "database", cfg.Mongo.Database, "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()
	if err := store.EnsureIndexes(ctx); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	notifier, err := newNotifier(cfg.Email)
	if err != nil {
		slog.Error("Failed to create email notifier", "driver", cfg.Email.Driver, "error", err)
		os.Exit(1)
	}
	notices, err := notification.NewNotificationManager(notifier,
		notification.WithDefaultTemplates(),
		notification.WithTimeout(cfg.Email.SendTimeout),
	)
	if err != nil {
		slog.Error("Failed to load email templates", "error", err)
		os.Exit(1)
	}

	routes, err := setupServices(cfg, store, notices)
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	server := app.DefaultApp()
	server.R.Use(middleware.RealIP)
	router.SetupRoutes(server.R, routes)

	slog.Info("Dental IDM Service Ready")
	server.Run()
}

func setupServices(cfg config.Config, store *mongodb.Store, notices *notification.NotificationManager) (router.Config, error) {
	repo := account.NewMongoRepository(store)
	hasher := account.NewBcryptHasher(account.DefaultBcryptCost)
	accounts := account.NewAccountService(repo, account.WithPasswordHasher(hasher))

	verifier := verification.NewService(repo,
		verification.WithPasswordHasher(hasher),
		verification.WithPolicy(verification.Policy{
			EmailLinkTTL: cfg.Verification.EmailLinkTTL,
			EmailCodeTTL: cfg.Verification.EmailCodeTTL,
			ResetCodeTTL: cfg.Verification.ResetCodeTTL,
		}),
	)
	linkURL := strings.TrimRight(cfg.Server.BaseURL, "/") + cfg.Server.APIPrefix + "/verify/email"
	mailer := verification.NewMailer(verifier, notices, linkURL)

	if _, err := bootstrap.BootstrapAdmin(context.Background(), bootstrap.AdminBootstrapConfig{
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
		Name:     cfg.Bootstrap.AdminName,
		Accounts: accounts,
		Verifier: verifier,
	}); err != nil {
		return router.Config{}, err
	}

	tokens := tokengenerator.NewJwtTokenGenerator(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience,
		tokengenerator.WithExpiry(cfg.JWT.AccessTokenExpiry))
	cookies := tokengenerator.NewCookieSetter(strings.HasPrefix(cfg.Server.BaseURL, "https://"))
	sessions := common.NewSessionIssuer(tokens, cookies)

	signupKind := account.KindCode
	if cfg.Verification.SignupUseLink {
		signupKind = account.KindLink
	}
	signupOpts := []signup.SignupServiceOption{
		signup.WithMailer(mailer),
		signup.WithVerificationKind(signupKind),
	}
	if cfg.Geo.LookupURL != "" {
		signupOpts = append(signupOpts, signup.WithCountryLocator(
			geo.NewLocator(cfg.Geo.LookupURL, cfg.Geo.Timeout, cfg.Geo.DefaultCountry)))
	}

	verificationOpts := []verificationapi.Option{}
	if cfg.RateLimit.Enabled {
		verificationOpts = append(verificationOpts, verificationapi.WithCooldown(ratelimit.NewCooldown(cfg.RateLimit.ResendCooldown)))
	}
	if cfg.Server.VerifiedRedirectPath != "" {
		verificationOpts = append(verificationOpts, verificationapi.WithVerifiedRedirect(
			strings.TrimRight(cfg.Server.FrontendURL, "/")+cfg.Server.VerifiedRedirectPath))
	}

	rateLimit, err := ratelimit.NewMiddleware(ratelimit.Config{
		Enabled:            cfg.RateLimit.Enabled,
		Rate:               cfg.RateLimit.Auth,
		TrustForwardHeader: cfg.RateLimit.TrustForwardHeader,
	})
	if err != nil {
		return router.Config{}, err
	}

	routes := router.Config{
		Prefix:             cfg.Server.APIPrefix,
		LoginHandle:        login.NewHandle(login.NewLoginService(accounts), sessions, cookies),
		SignupHandle:       signup.NewHandle(signup.NewSignupService(accounts, signupOpts...)),
		VerificationHandle: verificationapi.NewHandle(verifier, mailer, accounts, sessions, verificationOpts...),
		AdminHandle:        iam.NewHandle(accounts),
		ProfileHandle:      profile.NewHandle(profile.NewProfileService(accounts, profile.WithNotificationManager(notices)), sessions),
		Authenticator:      client.NewAuthenticator(tokens.JWTAuth(), accounts),
		RateLimit:          rateLimit,
		Health:             store,
		Audit:              newAuditMiddleware(cfg.Audit, store),
	}

	if cfg.Google.IsConfigured() {
		states, err := externalprovider.NewCacheStateStore()
		if err != nil {
			return router.Config{}, err
		}
		google := externalprovider.NewGoogleService(externalprovider.ProviderConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		}, states, accounts, externalprovider.WithStateTTL(cfg.Google.StateTTL))
		routes.ExternalProviderHandle = externalproviderapi.NewHandle(google, sessions)
		slog.Info("Google sign-in enabled", "redirect_url", cfg.Google.RedirectURL)
	}
	return routes, nil
}

func newNotifier(cfg config.EmailConfig) (notification.Notifier, error) {
	switch cfg.Driver {
	case config.EmailDriverLog:
		slog.Warn("Emails are logged instead of sent")
		return notification.LogNotifier{}, nil
	case config.EmailDriverMailyak:
		return notification.NewMailyakNotifier(cfg.ToSMTPConfig()), nil
	default:
		return notification.NewEmailNotifier(cfg.ToSMTPConfig())
	}
}

func newAuditMiddleware(cfg config.AuditConfig, store *mongodb.Store) func(http.Handler) http.Handler {
	switch cfg.Sink {
	case config.AuditSinkMongo:
		return audit.NewMiddleware(audit.NewMongoSink(store)).AuditAuthMiddleware
	case config.AuditSinkNone:
		slog.Info("Audit disabled")
		return nil
	default:
		return audit.NewMiddleware(audit.NewLogSink(nil)).AuditAuthMiddleware
	}
}
