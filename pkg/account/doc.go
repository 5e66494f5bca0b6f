// Package account is the credential store of dental-idm.
//
// Accounts live in the MongoDB users collection. A password account
// carries a bcrypt hash and starts unverified; a Google account has no
// password, is verified on creation, and can only sign in through OAuth.
// Signing in with the other method fails with ErrWrongOrigin.
//
// Pending verification and reset secrets are stored on the account under
// secrets.<purpose>. The Repository exposes the two atomic operations the
// verification package builds on: SetSecret (unconditional overwrite) and
// RedeemSecret (match hash, kind and expiry, then unset in one write).
//
// Basic usage:
//
//	repo := account.NewMongoRepository(store)
//	svc := account.NewAccountService(repo)
//
//	user, err := svc.Create(ctx, account.CreateParams{
//		Email:    "patient@example.com",
//		Password: "s3cret-pass",
//		Name:     "Pat",
//	})
//
//	user, err = svc.Authenticate(ctx, "patient@example.com", "s3cret-pass")
//	if errors.Is(err, account.ErrUnverified) {
//		// send the user to code entry
//	}
package account
