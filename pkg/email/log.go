package email

import (
	"context"

	"github.com/google/uuid"

	"campusrides/pkg/logger"
)

// LogProvider records emails instead of sending them, for development.
type LogProvider struct {
	logger *logger.Logger
	from   string
}

func NewLogProvider(log *logger.Logger, from string) *LogProvider {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogProvider{logger: log.WithField("component", "email"), from: from}
}

func (l *LogProvider) Send(ctx context.Context, message *Message) (*SendResult, error) {
	if err := message.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	l.logger.WithFields(map[string]interface{}{
		"email_id": id,
		"from":     l.from,
		"to":       message.To,
		"subject":  message.Subject,
	}).Info("Email not sent, log provider in use")

	return &SendResult{ID: id}, nil
}
