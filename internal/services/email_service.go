package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusrides/internal/observability"
	"campusrides/pkg/email"
	"campusrides/pkg/logger"
)

type EmailService interface {
	Send(ctx context.Context, message *email.Message) (*email.SendResult, error)
}

type emailService struct {
	provider email.Provider
	timeout  time.Duration
	logger   *logger.Logger
}

// NewEmailService bounds each provider call by timeout; zero means the
// caller's context alone decides.
func NewEmailService(provider email.Provider, timeout time.Duration, log *logger.Logger) EmailService {
	if log == nil {
		log = logger.NewNop()
	}
	return &emailService{provider: provider, timeout: timeout, logger: log.WithField("service", "email")}
}

// Send forwards message to the provider once. Failures are returned to the
// caller and never retried.
func (s *emailService) Send(ctx context.Context, message *email.Message) (*email.SendResult, error) {
	if err := message.Validate(); err != nil {
		observability.EmailsSent.WithLabelValues(observability.OutcomeRejected).Inc()
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.provider.Send(ctx, message)
	if err != nil {
		observability.EmailsSent.WithLabelValues(observability.OutcomeError).Inc()
		s.logger.WithError(err).WithField("recipients", len(message.To)).Error("Failed to send email")
		if errors.Is(err, email.ErrInvalidMessage) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	observability.EmailsSent.WithLabelValues(observability.OutcomeSuccess).Inc()
	return result, nil
}
