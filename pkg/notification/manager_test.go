package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const welcomeNotice NoticeType = "welcome"

func TestNotificationManager_Send(t *testing.T) {
	mock := &MockNotifier{}
	nm := NewNotificationManager()
	nm.RegisterNotifier(EmailSystem, mock)
	require.NoError(t, nm.RegisterNotification(welcomeNotice, EmailSystem, NoticeTemplate{
		Subject: "Welcome {{.FirstName}}",
		Text:    "Hello {{.FirstName}}",
		Html:    "<p>Hello {{.FirstName}}</p>",
	}))

	err := nm.Send(context.Background(), welcomeNotice, EmailSystem, NotificationData{
		To:   "ann@x.com",
		Data: map[string]string{"FirstName": "<Ann>"},
	})
	require.NoError(t, err)

	sent := mock.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ann@x.com", sent[0].To)
	assert.Equal(t, "Welcome <Ann>", sent[0].Rendered.Subject)
	assert.Equal(t, "Hello <Ann>", sent[0].Rendered.Text)
	assert.Equal(t, "<p>Hello &lt;Ann&gt;</p>", sent[0].Rendered.Html)
}

func TestNotificationManager_SendErrors(t *testing.T) {
	nm := NewNotificationManager()
	ctx := context.Background()

	err := nm.Send(ctx, welcomeNotice, EmailSystem, NotificationData{To: "ann@x.com"})
	assert.ErrorContains(t, err, "no templates registered")

	require.NoError(t, nm.RegisterNotification(welcomeNotice, EmailSystem, NoticeTemplate{Text: "hi"}))
	err = nm.Send(ctx, welcomeNotice, "sms", NotificationData{To: "ann@x.com"})
	assert.ErrorContains(t, err, "no template registered for system")

	err = nm.Send(ctx, welcomeNotice, EmailSystem, NotificationData{To: "ann@x.com"})
	assert.ErrorContains(t, err, "no notifier registered")

	assert.Error(t, nm.RegisterNotification("", EmailSystem, NoticeTemplate{Text: "hi"}))
	assert.Error(t, nm.RegisterNotification(welcomeNotice, EmailSystem, NoticeTemplate{Subject: "only a subject"}))
}

func TestMockNotifier_PropagatesErrorAndFailsOnMissingKeys(t *testing.T) {
	boom := errors.New("smtp: 554")
	mock := &MockNotifier{Err: boom}
	tmpl := NoticeTemplate{Html: "<a href=\"{{.Link}}\">confirm</a>"}

	err := mock.Send(context.Background(), welcomeNotice, NotificationData{Data: map[string]string{"Link": "https://x"}}, tmpl)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, mock.SentOfType(welcomeNotice), 1)

	mock.Reset()
	mock.Err = nil
	err = mock.Send(context.Background(), welcomeNotice, NotificationData{Data: map[string]string{}}, tmpl)
	assert.Error(t, err)
	assert.Empty(t, mock.Sent())
}

func TestNewEmailNotifier(t *testing.T) {
	n, err := NewEmailNotifier(SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "localhost", n.SMTPConfig.Host)

	err = n.Send(context.Background(), welcomeNotice, NotificationData{}, NoticeTemplate{Text: "hi"})
	assert.ErrorContains(t, err, "requires 'To' address")
}
