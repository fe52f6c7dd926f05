package notification

import (
	"context"
	"sync"
)

// SentNotification is what MockNotifier captured for one Send call.
type SentNotification struct {
	NoticeType NoticeType
	To         string
	Data       map[string]string
	Rendered   Rendered
}

// MockNotifier records notifications instead of delivering them. Templates are
// still rendered so broken templates fail in tests. Err, when set, is returned
// from every Send after the call is recorded.
type MockNotifier struct {
	mu   sync.Mutex
	sent []SentNotification
	Err  error
}

func (m *MockNotifier) Send(ctx context.Context, noticeType NoticeType, notification NotificationData, template NoticeTemplate) error {
	rendered, err := Render(template, notification.Data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentNotification{
		NoticeType: noticeType,
		To:         notification.To,
		Data:       notification.Data,
		Rendered:   rendered,
	})
	return m.Err
}

// Sent returns a copy of every recorded notification.
func (m *MockNotifier) Sent() []SentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentNotification(nil), m.sent...)
}

// SentOfType returns the recorded notifications of one notice type.
func (m *MockNotifier) SentOfType(noticeType NoticeType) []SentNotification {
	var out []SentNotification
	for _, n := range m.Sent() {
		if n.NoticeType == noticeType {
			out = append(out, n)
		}
	}
	return out
}

func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
