package push

import (
	"context"
	"errors"
	"testing"
)

type recordingProvider struct {
	tokens []string
}

func (p *recordingProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	p.tokens = append(p.tokens, request.Token)
	return &NotificationResponse{Success: true, Token: request.Token}, nil
}

func TestRouter_SendsByPlatform(t *testing.T) {
	fcm := &recordingProvider{}
	apns := &recordingProvider{}
	r := NewRouter().Register("android", fcm).Register("ios", apns).Register("web", nil)

	ctx := context.Background()
	if _, err := r.Send(ctx, "android", &NotificationRequest{Token: "a"}); err != nil {
		t.Fatalf("android send: %v", err)
	}
	if _, err := r.Send(ctx, "ios", &NotificationRequest{Token: "i"}); err != nil {
		t.Fatalf("ios send: %v", err)
	}
	if _, err := r.Send(ctx, "web", &NotificationRequest{Token: "w"}); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("expected ErrUnsupportedPlatform for unregistered web, got %v", err)
	}

	if len(fcm.tokens) != 1 || fcm.tokens[0] != "a" {
		t.Errorf("unexpected fcm tokens %v", fcm.tokens)
	}
	if len(apns.tokens) != 1 || apns.tokens[0] != "i" {
		t.Errorf("unexpected apns tokens %v", apns.tokens)
	}
}

func TestRouter_Enabled(t *testing.T) {
	if NewRouter().Enabled() {
		t.Error("empty router should be disabled")
	}
	if !NewRouter().Register("android", &recordingProvider{}).Enabled() {
		t.Error("router with a provider should be enabled")
	}
}

func TestIsUnregisteredReason(t *testing.T) {
	if !isUnregisteredReason("Unregistered") || !isUnregisteredReason("BadDeviceToken") {
		t.Error("expected unregistered reasons to match")
	}
	if isUnregisteredReason("TooManyRequests") {
		t.Error("throttling is not an unregistered token")
	}
}
