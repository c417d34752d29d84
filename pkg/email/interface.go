package email

import (
	"context"
	"errors"
	"strings"
)

var ErrInvalidMessage = errors.New("email needs at least one recipient, a subject and a body")

type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *Message) Validate() error {
	if len(m.To) == 0 || strings.TrimSpace(m.Subject) == "" || strings.TrimSpace(m.HTML) == "" {
		return ErrInvalidMessage
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return ErrInvalidMessage
		}
	}
	return nil
}

type SendResult struct {
	ID string `json:"id"`
}

// Provider sends transactional email from a fixed sender. Sends are not
// retried.
type Provider interface {
	Send(ctx context.Context, message *Message) (*SendResult, error)
}
