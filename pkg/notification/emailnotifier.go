package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string
}

type EmailNotifier struct {
	SMTPConfig SMTPConfig
	client     *mail.Client
}

func NewEmailNotifier(config SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(30 * time.Second),
	}

	// Only authenticate when credentials are configured (local relays such as mailpit accept anonymous mail)
	if config.Username != "" && config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	if config.TLS {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{ServerName: config.Host, MinVersion: tls.VersionTLS12}),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	slog.Info("Creating mail client", "host", config.Host, "port", config.Port, "tls", config.TLS)
	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &EmailNotifier{SMTPConfig: config, client: client}, nil
}

func (e *EmailNotifier) Send(ctx context.Context, noticeType NoticeType, notification NotificationData, noticeTemplate NoticeTemplate) error {
	if notification.To == "" {
		return fmt.Errorf("email notification requires 'To' address")
	}

	rendered, err := Render(noticeTemplate, notification.Data)
	if err != nil {
		return fmt.Errorf("failed to render %s notice: %w", noticeType, err)
	}

	msg := mail.NewMsg()
	if err := msg.From(e.SMTPConfig.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(notification.To); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(rendered.Subject)

	switch {
	case rendered.Text != "" && rendered.Html != "":
		msg.SetBodyString(mail.TypeTextPlain, rendered.Text)
		msg.AddAlternativeString(mail.TypeTextHTML, rendered.Html)
	case rendered.Html != "":
		msg.SetBodyString(mail.TypeTextHTML, rendered.Html)
	default:
		msg.SetBodyString(mail.TypeTextPlain, rendered.Text)
	}

	if err := e.client.DialAndSendWithContext(ctx, msg); err != nil {
		slog.Error("Failed to send email", "notice", noticeType, "host", e.SMTPConfig.Host, "error", err)
		return fmt.Errorf("failed to send %s email: %w", noticeType, err)
	}

	slog.Info("Email sent", "notice", noticeType, "to", notification.To)
	return nil
}
