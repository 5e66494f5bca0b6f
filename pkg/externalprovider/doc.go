// Package externalprovider implements Google sign-in.
//
// GoogleService runs the OAuth2 authorization code flow: AuthCodeURL stores
// a random state in a StateStore and returns the consent page, and
// HandleCallback consumes the state, exchanges the code, reads the userinfo
// profile and provisions the account through account.AccountService. The
// first sign-in creates a verified account with origin google; an email
// already registered with a password fails with account.ErrWrongOrigin.
//
// The api subpackage exposes the flow as chi handlers.
package externalprovider
