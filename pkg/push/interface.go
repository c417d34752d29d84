package push

import (
	"context"
	"errors"
)

// ErrUnsupportedPlatform is returned by Router when no provider serves the
// device platform.
var ErrUnsupportedPlatform = errors.New("no push provider for platform")

type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
}

type NotificationRequest struct {
	Token       string            `json:"token"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	Sound       string            `json:"sound,omitempty"`
	Badge       int               `json:"badge,omitempty"`
	Priority    string            `json:"priority,omitempty"`
	TTL         int               `json:"ttl,omitempty"`
	CollapseKey string            `json:"collapse_key,omitempty"`
	ThreadID    string            `json:"thread_id,omitempty"`
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
	// Unregistered is set when the provider reports the token as gone, so
	// the caller can drop it from the user's devices.
	Unregistered bool `json:"unregistered,omitempty"`
}
