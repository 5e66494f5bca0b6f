package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/verification"
)

// AdminBootstrapConfig describes the administrator ensured at startup
type AdminBootstrapConfig struct {
	// Admin credentials (from ADMIN_EMAIL, ADMIN_PASSWORD, ADMIN_NAME)
	Email    string
	Password string
	Name     string

	// Service dependencies
	Accounts *account.AccountService
	Verifier *verification.Service
}

// AdminBootstrapResult contains the result of admin bootstrap operation
type AdminBootstrapResult struct {
	UserID   string
	Email    string
	Created  bool // account was inserted
	Promoted bool // an existing account was given the admin role
}

// BootstrapAdmin makes sure the configured email belongs to a verified
// administrator. An existing account is promoted; otherwise a verified
// password account is created. Nothing happens when no email is configured.
func BootstrapAdmin(ctx context.Context, cfg AdminBootstrapConfig) (*AdminBootstrapResult, error) {
	if cfg.Email == "" {
		slog.Debug("No admin email configured - skipping admin bootstrap")
		return nil, nil
	}
	if cfg.Accounts == nil || cfg.Verifier == nil {
		return nil, fmt.Errorf("invalid bootstrap configuration: account and verification services are required")
	}

	existing, err := cfg.Accounts.GetByEmail(ctx, cfg.Email)
	switch {
	case err == nil:
		result := &AdminBootstrapResult{UserID: existing.ID.Hex(), Email: existing.Email}
		if existing.Role != account.RoleAdmin {
			if _, err := cfg.Accounts.SetRole(ctx, existing.ID.Hex(), account.RoleAdmin); err != nil {
				return nil, fmt.Errorf("failed to promote admin: %w", err)
			}
			result.Promoted = true
		}
		LogBootstrapSummary(result)
		return result, nil
	case !stderrors.Is(err, account.ErrUserNotFound):
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if cfg.Password == "" {
		return nil, fmt.Errorf("invalid bootstrap configuration: ADMIN_PASSWORD is required to create %s", cfg.Email)
	}
	user, err := cfg.Accounts.Create(ctx, account.CreateParams{Email: cfg.Email, Password: cfg.Password, Name: cfg.Name})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	if _, err := cfg.Accounts.SetRole(ctx, user.ID.Hex(), account.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to grant admin role: %w", err)
	}

	// verify through an issued code so the account goes through the same writes as any other
	issued, err := cfg.Verifier.Issue(ctx, user.Email, account.PurposeEmailVerify, account.KindCode)
	if err != nil {
		return nil, fmt.Errorf("failed to verify admin: %w", err)
	}
	if _, err := cfg.Verifier.Redeem(ctx, account.Lookup{UserID: user.ID}, issued.Secret, account.PurposeEmailVerify); err != nil {
		return nil, fmt.Errorf("failed to verify admin: %w", err)
	}

	result := &AdminBootstrapResult{UserID: user.ID.Hex(), Email: user.Email, Created: true}
	LogBootstrapSummary(result)
	return result, nil
}

// LogBootstrapSummary logs a concise summary using slog (for structured logging)
func LogBootstrapSummary(result *AdminBootstrapResult) {
	if result == nil {
		return
	}
	slog.Info("Admin bootstrap summary",
		"admin_email", result.Email,
		"user_id", result.UserID,
		"created", result.Created,
		"promoted", result.Promoted,
	)
}
