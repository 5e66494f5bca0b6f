package notification

import (
	"embed"
	"time"
)

//go:embed templates/*.html
var templateFiles embed.FS

func loadTemplate(filename string) (string, error) {
	content, err := templateFiles.ReadFile("templates/" + filename)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// NotificationManagerOption is a function that configures a NotificationManager
type NotificationManagerOption func(*NotificationManager) error

// WithTimeout bounds each delivery
func WithTimeout(d time.Duration) NotificationManagerOption {
	return func(nm *NotificationManager) error {
		if d > 0 {
			nm.timeout = d
		}
		return nil
	}
}

// WithTemplate registers a custom template
func WithTemplate(noticeType NoticeType, tmpl NoticeTemplate) NotificationManagerOption {
	return func(nm *NotificationManager) error {
		return nm.RegisterNotification(noticeType, tmpl)
	}
}

func withEmbedded(noticeType NoticeType, subject, text, file string) NotificationManagerOption {
	return func(nm *NotificationManager) error {
		html, err := loadTemplate(file)
		if err != nil {
			return err
		}
		return nm.RegisterNotification(noticeType, NoticeTemplate{Subject: subject, Text: text, Html: html})
	}
}

// WithEmailVerificationLinkTemplate expects Link and ExpiresIn, and optionally Name
func WithEmailVerificationLinkTemplate() NotificationManagerOption {
	return withEmbedded(EmailVerificationLinkNotice,
		"Verify Your Email Address",
		"Verify your email address by opening this link: {{.Link}}\nThe link expires in {{.ExpiresIn}}.",
		"email_verification_link.html")
}

// WithEmailVerificationCodeTemplate expects Code and ExpiresIn
func WithEmailVerificationCodeTemplate() NotificationManagerOption {
	return withEmbedded(EmailVerificationCodeNotice,
		"Your Verification Code",
		"Your verification code is {{.Code}}. It expires in {{.ExpiresIn}}.",
		"email_verification_code.html")
}

// WithPasswordResetCodeTemplate expects Code and ExpiresIn
func WithPasswordResetCodeTemplate() NotificationManagerOption {
	return withEmbedded(PasswordResetCodeNotice,
		"Password Reset Code",
		"Your password reset code is {{.Code}}. It expires in {{.ExpiresIn}}.",
		"password_reset_code.html")
}

// WithPasswordChangedTemplate expects Name and ChangedAt
func WithPasswordChangedTemplate() NotificationManagerOption {
	return withEmbedded(PasswordChangedNotice,
		"Your Password Was Changed",
		"The password for your account was changed at {{.ChangedAt}}. If this was not you, reset your password now.",
		"password_changed.html")
}

// WithDefaultTemplates registers all default notification templates
func WithDefaultTemplates() NotificationManagerOption {
	return func(nm *NotificationManager) error {
		options := []NotificationManagerOption{
			WithEmailVerificationLinkTemplate(),
			WithEmailVerificationCodeTemplate(),
			WithPasswordResetCodeTemplate(),
			WithPasswordChangedTemplate(),
		}
		for _, opt := range options {
			if err := opt(nm); err != nil {
				return err
			}
		}
		return nil
	}
}
