package notification

import (
	"context"
	"log/slog"
)

// LogNotifier writes messages to the log. Used with EMAIL_DRIVER=log in
// development, where codes are read from the console.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, msg Message) error {
	slog.Info("Email not sent (log driver)", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}
