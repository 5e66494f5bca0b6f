package notification

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"sync"
	texttemplate "text/template"
	"time"

	"github.com/tendant/dental-idm/pkg/errors"
)

// NoticeType identifies a registered email template
type NoticeType string

const (
	EmailVerificationLinkNotice NoticeType = "email_verification_link"
	EmailVerificationCodeNotice NoticeType = "email_verification_code"
	PasswordResetCodeNotice     NoticeType = "password_reset_code"
	PasswordChangedNotice       NoticeType = "password_changed"
)

// DefaultSendTimeout bounds a single delivery
const DefaultSendTimeout = 10 * time.Second

// NoticeTemplate is the raw subject and bodies of a notice. Either body may
// be empty.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

type compiledTemplate struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

// NotificationManager renders notices and hands them to a Notifier
type NotificationManager struct {
	notifier Notifier
	timeout  time.Duration

	mu        sync.RWMutex
	templates map[NoticeType]compiledTemplate
}

// NewNotificationManager creates a manager sending through notifier
func NewNotificationManager(notifier Notifier, opts ...NotificationManagerOption) (*NotificationManager, error) {
	nm := &NotificationManager{
		notifier:  notifier,
		timeout:   DefaultSendTimeout,
		templates: make(map[NoticeType]compiledTemplate),
	}
	for _, opt := range opts {
		if err := opt(nm); err != nil {
			return nil, err
		}
	}
	return nm, nil
}

// RegisterNotification parses and stores the template for noticeType,
// replacing any earlier registration.
func (nm *NotificationManager) RegisterNotification(noticeType NoticeType, tmpl NoticeTemplate) error {
	if noticeType == "" {
		return fmt.Errorf("invalid input: notice type cannot be empty")
	}
	if tmpl.Text == "" && tmpl.Html == "" {
		return fmt.Errorf("invalid input: template for %s has no body", noticeType)
	}

	compiled := compiledTemplate{subject: tmpl.Subject}
	if tmpl.Text != "" {
		t, err := texttemplate.New(string(noticeType)).Option("missingkey=error").Parse(tmpl.Text)
		if err != nil {
			return fmt.Errorf("parse text template %s: %w", noticeType, err)
		}
		compiled.text = t
	}
	if tmpl.Html != "" {
		t, err := htmltemplate.New(string(noticeType)).Option("missingkey=error").Parse(tmpl.Html)
		if err != nil {
			return fmt.Errorf("parse html template %s: %w", noticeType, err)
		}
		compiled.html = t
	}

	nm.mu.Lock()
	nm.templates[noticeType] = compiled
	nm.mu.Unlock()
	return nil
}

// Render produces the message for noticeType without sending it
func (nm *NotificationManager) Render(noticeType NoticeType, to string, data map[string]string) (Message, error) {
	nm.mu.RLock()
	tmpl, ok := nm.templates[noticeType]
	nm.mu.RUnlock()
	if !ok {
		return Message{}, fmt.Errorf("no template registered for notice type: %s", noticeType)
	}

	msg := Message{To: to, Subject: tmpl.subject}
	if tmpl.text != nil {
		var buf bytes.Buffer
		if err := tmpl.text.Execute(&buf, data); err != nil {
			return Message{}, fmt.Errorf("render text %s: %w", noticeType, err)
		}
		msg.Text = buf.String()
	}
	if tmpl.html != nil {
		var buf bytes.Buffer
		if err := tmpl.html.Execute(&buf, data); err != nil {
			return Message{}, fmt.Errorf("render html %s: %w", noticeType, err)
		}
		msg.HTML = buf.String()
	}
	return msg, nil
}

// Send renders and delivers a notice within the manager's timeout. Transport
// failures come back with code DELIVERY_FAILED; a broken template is an
// internal error.
func (nm *NotificationManager) Send(ctx context.Context, noticeType NoticeType, to string, data map[string]string) error {
	msg, err := nm.Render(noticeType, to, data)
	if err != nil {
		slog.Error("Failed to render notice", "notice_type", noticeType, "error", err)
		return errors.InternalWrap(err, "failed to render email")
	}

	ctx, cancel := context.WithTimeout(ctx, nm.timeout)
	defer cancel()

	if err := nm.notifier.Send(ctx, msg); err != nil {
		slog.Warn("Notice delivery failed", "notice_type", noticeType, "to", to, "error", err)
		return errors.DeliveryFailed(err)
	}
	return nil
}
