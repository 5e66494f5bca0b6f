// Package signup registers password accounts.
//
// SignupService creates the account through account.AccountService, fills
// in the country from the client address when the request has none, and
// emails a verification link or code through verification.Mailer. A failed
// delivery does not undo the sign-up.
package signup
