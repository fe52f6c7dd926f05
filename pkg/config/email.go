package config

import (
	"github.com/jarvisapp/jarvis-idm/pkg/notification"
)

// EmailConfig holds SMTP email configuration
type EmailConfig struct {
	Host        string `env:"EMAIL_HOST" env-default:"localhost"`
	Port        uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username    string `env:"EMAIL_USERNAME" env-default:""`
	Password    string `env:"EMAIL_PASSWORD" env-default:""`
	From        string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS         bool   `env:"EMAIL_TLS" env-default:"false"`
	FrontendURL string `env:"FRONTEND_URL" env-default:"http://localhost:3000"`
}

// ToSMTPConfig converts the config to a notification.SMTPConfig
func (e EmailConfig) ToSMTPConfig() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:     e.Host,
		Port:     int(e.Port),
		Username: e.Username,
		Password: e.Password,
		From:     e.From,
		TLS:      e.TLS,
	}
}

// Validate checks the SMTP settings
func (e EmailConfig) Validate() ValidationErrors {
	return CollectErrors(
		RequireNonEmpty("EMAIL_HOST", e.Host),
		RequireValidPort("EMAIL_PORT", e.Port),
		RequireNonEmpty("EMAIL_FROM", e.From),
		RequireValidURL("FRONTEND_URL", e.FrontendURL),
	)
}
