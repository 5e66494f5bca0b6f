package notification

import (
	"context"
	"sync"
)

// MockNotifier records messages instead of sending them. Set Err to make
// every Send fail with a DeliveryError.
type MockNotifier struct {
	mu       sync.Mutex
	Messages []Message
	Err      error
}

func (m *MockNotifier) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return &DeliveryError{Transport: "mock", To: msg.To, Err: m.Err}
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// Sent returns a copy of the recorded messages
func (m *MockNotifier) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Messages...)
}

// Last returns the most recent message, or false if nothing was sent
func (m *MockNotifier) Last() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		return Message{}, false
	}
	return m.Messages[len(m.Messages)-1], true
}
