package notice

import (
	"context"
	"embed"
	"fmt"
	"net/url"
	"strings"

	"github.com/jarvisapp/jarvis-idm/pkg/notification"
)

const (
	AccountActivationNotice  notification.NoticeType = "account_activation"
	DeviceVerificationNotice notification.NoticeType = "device_verification"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) (string, error) {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", filename, err)
	}
	return string(content), nil
}

// RegisterNotices registers the account notices for the email system.
func RegisterNotices(nm *notification.NotificationManager) error {
	notices := []struct {
		noticeType notification.NoticeType
		subject    string
		file       string
		text       string
	}{
		{
			noticeType: AccountActivationNotice,
			subject:    "Activate your Jarvis account",
			file:       "templates/email/account_activation.html",
			text:       "Hello {{.FirstName}},\n\nActivate your account: {{.Link}}\nActivation code: {{.Token}}\n",
		},
		{
			noticeType: DeviceVerificationNotice,
			subject:    "New device sign-in to your Jarvis account",
			file:       "templates/email/device_verification.html",
			text:       "Hello {{.FirstName}},\n\nTrust this device: {{.Link}}\nVerification code: {{.Token}}\n",
		},
	}

	for _, n := range notices {
		html, err := loadTemplate(n.file)
		if err != nil {
			return err
		}
		err = nm.RegisterNotification(n.noticeType, notification.EmailSystem, notification.NoticeTemplate{
			Subject: n.subject,
			Text:    n.text,
			Html:    html,
		})
		if err != nil {
			return fmt.Errorf("failed to register %s notice: %w", n.noticeType, err)
		}
	}
	return nil
}

// NewNotificationManager builds a manager that delivers the account notices over SMTP.
func NewNotificationManager(smtpConfig notification.SMTPConfig) (*notification.NotificationManager, error) {
	emailNotifier, err := notification.NewEmailNotifier(smtpConfig)
	if err != nil {
		return nil, err
	}

	nm := notification.NewNotificationManager()
	nm.RegisterNotifier(notification.EmailSystem, emailNotifier)
	if err := RegisterNotices(nm); err != nil {
		return nil, err
	}
	return nm, nil
}

// Mailer sends the account activation and device verification mails.
type Mailer struct {
	nm          *notification.NotificationManager
	frontendURL string
}

func NewMailer(nm *notification.NotificationManager, frontendURL string) *Mailer {
	return &Mailer{nm: nm, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (m *Mailer) SendAccountActivationMail(ctx context.Context, firstName, email, token string) error {
	return m.send(ctx, AccountActivationNotice, "/activate", firstName, email, token)
}

func (m *Mailer) SendTrustDeviceVerificationMail(ctx context.Context, firstName, email, token string) error {
	return m.send(ctx, DeviceVerificationNotice, "/devices/confirm", firstName, email, token)
}

func (m *Mailer) send(ctx context.Context, noticeType notification.NoticeType, path, firstName, email, token string) error {
	query := url.Values{}
	query.Set("email", email)
	query.Set("token", token)

	err := m.nm.Send(ctx, noticeType, notification.EmailSystem, notification.NotificationData{
		To: email,
		Data: map[string]string{
			"FirstName": firstName,
			"Email":     email,
			"Token":     token,
			"Link":      m.frontendURL + path + "?" + query.Encode(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send %s mail: %w", noticeType, err)
	}
	return nil
}
