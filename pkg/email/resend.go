package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

type ResendProvider struct {
	client *resend.Client
	from   string
}

func NewResendProvider(apiKey, from string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (r *ResendProvider) Send(ctx context.Context, message *Message) (*SendResult, error) {
	if err := message.Validate(); err != nil {
		return nil, err
	}

	resp, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    r.from,
		To:      message.To,
		Subject: message.Subject,
		Html:    message.HTML,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send email via resend: %w", err)
	}

	return &SendResult{ID: resp.Id}, nil
}
