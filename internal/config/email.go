package config

import (
	"time"
)

type EmailConfig struct {
	Provider  string        `yaml:"provider"`
	FromEmail string        `yaml:"from_email"`
	FromName  string        `yaml:"from_name"`
	Timeout   time.Duration `yaml:"timeout"`
	Resend    *ResendConfig `yaml:"resend"`
	SMTP      *SMTPConfig   `yaml:"smtp"`
}

type ResendConfig struct {
	APIKey string `yaml:"api_key"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// From renders the sender the way mail providers expect it: "Name <address>".
func (c *EmailConfig) From() string {
	if c.FromName == "" {
		return c.FromEmail
	}
	return c.FromName + " <" + c.FromEmail + ">"
}

func loadEmailConfig() *EmailConfig {
	return &EmailConfig{
		Provider:  getEnv("EMAIL_PROVIDER", "log"),
		FromEmail: getEnv("EMAIL_FROM_ADDRESS", "notifications@campusrides.com"),
		FromName:  getEnv("EMAIL_FROM_NAME", "Campus Rides"),
		Timeout:   getEnvAsDuration("EMAIL_TIMEOUT", 10*time.Second),
		Resend: &ResendConfig{
			APIKey: getEnv("RESEND_API_KEY", ""),
		},
		SMTP: &SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
	}
}
