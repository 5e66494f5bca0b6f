package notification

import (
	"context"
	"fmt"
)

// Message is one rendered email
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers a rendered message. Transport failures are returned as
// *DeliveryError.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError reports that a transport could not hand a message over
type DeliveryError struct {
	Transport string
	To        string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery to %s failed: %v", e.Transport, e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
