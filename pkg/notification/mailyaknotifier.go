package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"
)

// MailyakNotifier sends mail with mailyak. It is the EMAIL_DRIVER=mailyak
// alternative to EmailNotifier for relays that want PLAIN auth.
type MailyakNotifier struct {
	config SMTPConfig
}

func NewMailyakNotifier(config SMTPConfig) *MailyakNotifier {
	return &MailyakNotifier{config: config}
}

func (n *MailyakNotifier) Send(ctx context.Context, m Message) error {
	if m.To == "" {
		return fmt.Errorf("email notification requires 'To' address")
	}

	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	}

	mail := mailyak.New(fmt.Sprintf("%s:%d", n.config.Host, n.config.Port), auth)
	mail.To(m.To)
	mail.From(n.config.From)
	mail.Subject(m.Subject)
	if m.Text != "" {
		mail.Plain().Set(m.Text)
	}
	if m.HTML != "" {
		mail.HTML().Set(m.HTML)
	}

	// mailyak has no context support, so the send races the deadline
	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return &DeliveryError{Transport: "mailyak", To: m.To, Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			slog.Error("Failed to send email", "to", m.To, "error", err)
			return &DeliveryError{Transport: "mailyak", To: m.To, Err: err}
		}
	}

	slog.Info("Email sent successfully", "to", m.To, "host", n.config.Host)
	return nil
}
