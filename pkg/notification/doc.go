// Package notification renders and delivers account emails.
//
// A NotificationManager owns one Notifier and a set of templates keyed by
// NoticeType. The default templates cover email verification links,
// email verification codes and password reset codes.
//
//	notifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
//	    Host: "localhost",
//	    Port: 1025,
//	    From: "noreply@dental.local",
//	})
//	if err != nil {
//	    return err
//	}
//	nm, err := notification.NewNotificationManager(notifier,
//	    notification.WithDefaultTemplates(),
//	    notification.WithTimeout(10*time.Second),
//	)
//	err = nm.Send(ctx, notification.EmailVerificationCodeNotice, "user@example.com",
//	    map[string]string{"Code": "123456", "ExpiresIn": "10 minutes"})
//
// Transports:
//
//   - EmailNotifier sends over SMTP with go-mail
//   - MailyakNotifier sends over SMTP with mailyak and PLAIN auth
//   - LogNotifier logs the message and never fails
//   - MockNotifier records messages for tests
//
// Send returns an error with code DELIVERY_FAILED when the transport fails.
// Callers decide whether that is fatal.
package notification
