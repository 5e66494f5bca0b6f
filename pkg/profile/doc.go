// Package profile lets a signed-in user change their own password.
//
// The current password is checked before the new one is stored. Storing a
// new password moves the account's password_changed_at forward, which
// invalidates every token issued before it, so the handler responds with a
// fresh session for the caller.
//
//	profileService := profile.NewProfileService(accounts, profile.WithNotificationManager(nm))
//	r.Put("/me/password", profile.NewHandle(profileService, sessions).ChangePassword)
package profile
