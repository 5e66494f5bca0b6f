// Package login signs password accounts in and out and serves the current
// account. Sessions are HS256 tokens returned in the body and set as the
// access_token cookie.
package login
