package config

import (
	"time"

	"github.com/tendant/dental-idm/pkg/notification"
)

// Supported values for EMAIL_DRIVER
const (
	EmailDriverGoMail  = "gomail"
	EmailDriverMailyak = "mailyak"
	EmailDriverLog     = "log"
)

// EmailConfig holds SMTP email configuration
type EmailConfig struct {
	Driver      string        `env:"EMAIL_DRIVER" env-default:"gomail"`
	Host        string        `env:"EMAIL_HOST" env-default:"localhost"`
	Port        uint16        `env:"EMAIL_PORT" env-default:"1025"`
	Username    string        `env:"EMAIL_USERNAME" env-default:""`
	Password    string        `env:"EMAIL_PASSWORD" env-default:""`
	From        string        `env:"EMAIL_FROM" env-default:"noreply@dental.local"`
	TLS         bool          `env:"EMAIL_TLS" env-default:"false"`
	SendTimeout time.Duration `env:"EMAIL_SEND_TIMEOUT" env-default:"10s"`
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
