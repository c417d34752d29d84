package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type SMTPProvider struct {
	config SMTPConfig
	from   string
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPProvider(cfg SMTPConfig, from string) *SMTPProvider {
	return &SMTPProvider{config: cfg, from: from, send: smtp.SendMail}
}

func (s *SMTPProvider) Send(ctx context.Context, message *Message) (*SendResult, error) {
	if err := message.Validate(); err != nil {
		return nil, err
	}

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	id := uuid.NewString()
	body := s.buildMessage(id, message)
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	done := make(chan error, 1)
	go func() {
		done <- s.send(addr, auth, envelopeAddress(s.from), message.To, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("failed to send email via smtp: %w", err)
		}
		return &SendResult{ID: id}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *SMTPProvider) buildMessage(id string, message *Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + strings.Join(message.To, ", ") + "\r\n")
	b.WriteString("Subject: " + message.Subject + "\r\n")
	b.WriteString("Message-ID: <" + id + "@" + s.config.Host + ">\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(message.HTML)
	return []byte(b.String())
}

// envelopeAddress strips a display name: "Name <a@b>" becomes "a@b".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}
