package notification

import "context"

// NoticeType identifies a kind of message, e.g. an account activation mail.
type NoticeType string

// NoticeTemplate holds the templates rendered for one notice type and system.
// Subject and Text use text/template, Html uses html/template.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

type NotificationData struct {
	To   string            // Recipient identifier (email address for the email system)
	Data map[string]string // Values available to the templates
}

type Notifier interface {
	Send(ctx context.Context, noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
