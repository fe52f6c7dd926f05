package notice

import (
	"context"
	"errors"
	"testing"

	"github.com/jarvisapp/jarvis-idm/pkg/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMailer(t *testing.T) (*Mailer, *notification.MockNotifier) {
	t.Helper()
	mock := &notification.MockNotifier{}
	nm := notification.NewNotificationManager()
	nm.RegisterNotifier(notification.EmailSystem, mock)
	require.NoError(t, RegisterNotices(nm))
	return NewMailer(nm, "https://jarvis.example.com/"), mock
}

func TestMailer_SendAccountActivationMail(t *testing.T) {
	mailer, mock := newTestMailer(t)

	err := mailer.SendAccountActivationMail(context.Background(), "Ann", "ann+test@x.com", "tok-123")
	require.NoError(t, err)

	sent := mock.SentOfType(AccountActivationNotice)
	require.Len(t, sent, 1)
	assert.Equal(t, "ann+test@x.com", sent[0].To)
	assert.Equal(t, "tok-123", sent[0].Data["Token"])
	assert.Equal(t, "https://jarvis.example.com/activate?email=ann%2Btest%40x.com&token=tok-123", sent[0].Data["Link"])
	assert.Contains(t, sent[0].Rendered.Html, "Welcome Ann,")
	assert.Contains(t, sent[0].Rendered.Text, "tok-123")
}

func TestMailer_SendTrustDeviceVerificationMail(t *testing.T) {
	mailer, mock := newTestMailer(t)

	err := mailer.SendTrustDeviceVerificationMail(context.Background(), "Ann", "ann@x.com", "dev-token")
	require.NoError(t, err)

	sent := mock.SentOfType(DeviceVerificationNotice)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Data["Link"], "/devices/confirm?")
	assert.Contains(t, sent[0].Rendered.Html, "dev-token")
	assert.Empty(t, mock.SentOfType(AccountActivationNotice))
}

func TestMailer_DeliveryErrorPropagates(t *testing.T) {
	mailer, mock := newTestMailer(t)
	smtpErr := errors.New("dial tcp: connection refused")
	mock.Err = smtpErr

	err := mailer.SendAccountActivationMail(context.Background(), "Ann", "ann@x.com", "tok")
	assert.ErrorIs(t, err, smtpErr)
}
