package verification

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/notification"
)

// Mailer issues secrets and emails them. A delivery failure is returned as
// a DELIVERY_FAILED error together with the Issued value: the secret is
// stored either way and the caller decides whether the failure matters.
type Mailer struct {
	service *Service
	notices *notification.NotificationManager
	linkURL string
}

// NewMailer creates a mailer. linkURL is the absolute URL of the link
// verification endpoint; the token is appended as the token query parameter.
func NewMailer(service *Service, notices *notification.NotificationManager, linkURL string) *Mailer {
	return &Mailer{service: service, notices: notices, linkURL: linkURL}
}

// SendVerification issues an email verification secret of kind and sends it
func (m *Mailer) SendVerification(ctx context.Context, email string, kind account.SecretKind) (Issued, error) {
	issued, err := m.service.Issue(ctx, email, account.PurposeEmailVerify, kind)
	if err != nil {
		return Issued{}, err
	}

	data := map[string]string{
		"Name":      issued.User.Name,
		"ExpiresIn": FormatTTL(issued.TTL),
	}
	notice := notification.EmailVerificationCodeNotice
	if kind == account.KindLink {
		notice = notification.EmailVerificationLinkNotice
		data["Link"] = m.VerificationLink(issued.Secret)
	} else {
		data["Code"] = issued.Secret
	}

	return issued, m.notices.Send(ctx, notice, issued.User.Email, data)
}

// SendPasswordReset issues a reset code and sends it
func (m *Mailer) SendPasswordReset(ctx context.Context, email string) (Issued, error) {
	issued, err := m.service.Issue(ctx, email, account.PurposePasswordReset, account.KindCode)
	if err != nil {
		return Issued{}, err
	}
	return issued, m.notices.Send(ctx, notification.PasswordResetCodeNotice, issued.User.Email, map[string]string{
		"Name":      issued.User.Name,
		"Code":      issued.Secret,
		"ExpiresIn": FormatTTL(issued.TTL),
	})
}

// VerificationLink builds the link mailed for token
func (m *Mailer) VerificationLink(token string) string {
	return m.linkURL + "?token=" + url.QueryEscape(token)
}

// FormatTTL renders a lifetime for email copy, e.g. "10 minutes" or "1 hour"
func FormatTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d.Round(time.Second)/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
