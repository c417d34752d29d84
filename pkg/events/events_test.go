package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("booking.created", "ride-1", map[string]int{"seats": 2})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if ev.ID == "" || ev.OccurredAt.IsZero() {
		t.Errorf("expected id and time to be stamped, got %+v", ev)
	}
	if ev.Key != "ride-1" || ev.Type != "booking.created" {
		t.Errorf("unexpected event %+v", ev)
	}

	var payload map[string]int
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload["seats"] != 2 {
		t.Errorf("unexpected payload %s (%v)", ev.Payload, err)
	}
}

func TestNewEvent_RejectsUnencodablePayload(t *testing.T) {
	if _, err := NewEvent("x", "k", make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	if err := p.Publish(context.Background(), &Event{}); err != nil {
		t.Errorf("noop publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("noop close: %v", err)
	}
}
