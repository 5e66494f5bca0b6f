// Package verification issues and redeems single-use secrets for email
// verification and password reset.
//
// A secret is either a link token (64 hex characters) or a six digit code.
// Only its SHA-256 digest is stored, under secrets.<purpose> on the account
// document, so each purpose holds at most one pending secret and issuing a
// new one replaces the old.
//
// Redeeming is one conditional write: the stored secret must match the
// presented hash and kind and must not have expired. On match it is removed
// and the account is marked verified (or given a new password) in the same
// update. When nothing matches, the stored state is read to tell the caller
// which of ErrSecretNotFound, ErrExpired or ErrMismatch applies.
//
//	svc := verification.NewService(repo,
//	    verification.WithPasswordHasher(accounts.Hasher()),
//	    verification.WithPolicy(verification.Policy{
//	        EmailLinkTTL: time.Hour,
//	        EmailCodeTTL: 10 * time.Minute,
//	        ResetCodeTTL: 10 * time.Minute,
//	    }),
//	)
//	mailer := verification.NewMailer(svc, notices, "https://api.example.com/api/v1/auth/verify/email")
//
//	// forgot password
//	_, err := mailer.SendPasswordReset(ctx, "pat@example.com")
//
//	// reset password
//	user, err := svc.Redeem(ctx, account.Lookup{Email: "pat@example.com"}, "482913",
//	    account.PurposePasswordReset, verification.WithNewPassword("n3w-passw0rd"))
package verification
