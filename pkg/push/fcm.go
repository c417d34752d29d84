package push

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// FCMProvider delivers to Android and web tokens, and to iOS tokens when no
// APNs key is configured.
type FCMProvider struct {
	client *messaging.Client
}

func NewFCMProvider(ctx context.Context, app *firebase.App) (*FCMProvider, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMProvider{client: client}, nil
}

func (f *FCMProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	id, err := f.client.Send(ctx, buildFCMMessage(request))
	if err != nil {
		return &NotificationResponse{
			Success:      false,
			Error:        err.Error(),
			Token:        request.Token,
			Unregistered: messaging.IsUnregistered(err),
		}, err
	}

	return &NotificationResponse{
		MessageID: id,
		Success:   true,
		Token:     request.Token,
	}, nil
}

func buildFCMMessage(request *NotificationRequest) *messaging.Message {
	message := &messaging.Message{
		Token: request.Token,
		Data:  request.Data,
		Notification: &messaging.Notification{
			Title: request.Title,
			Body:  request.Body,
		},
	}

	android := &messaging.AndroidConfig{
		CollapseKey: request.CollapseKey,
		Priority:    "normal",
		Notification: &messaging.AndroidNotification{
			Sound: request.Sound,
			Tag:   request.CollapseKey,
		},
	}
	if request.Priority == "high" {
		android.Priority = "high"
	}
	if request.TTL > 0 {
		ttl := time.Duration(request.TTL) * time.Second
		android.TTL = &ttl
	}
	message.Android = android

	if request.Badge > 0 || request.ThreadID != "" {
		badge := request.Badge
		message.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Badge:    &badge,
					Sound:    request.Sound,
					ThreadID: request.ThreadID,
				},
			},
		}
	}

	return message
}
