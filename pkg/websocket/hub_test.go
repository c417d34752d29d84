package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type roomAuthorizer struct {
	allowed map[string]bool
}

func (a *roomAuthorizer) AuthorizeRoom(ctx context.Context, userID, room string) error {
	if a.allowed[room] {
		return nil
	}
	return errors.New("not allowed")
}

func newTestServer(t *testing.T, hub *Hub, auth Authorizer) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(hub, auth, Options{PongTimeout: 5 * time.Second}, func(c *gin.Context) string {
		return c.Query("uid")
	}, nil)

	r := gin.New()
	r.GET("/ws", handler.HandleWebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?uid=" + uid
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read: %v", err)
	}
	return event
}

func startHub(t *testing.T, relay Relay) *Hub {
	t.Helper()
	hub := NewHub(relay, nil)
	go hub.Run(context.Background())
	t.Cleanup(hub.Stop)
	return hub
}

func TestHub_UserRoomIsJoinedOnConnect(t *testing.T) {
	hub := startHub(t, nil)
	srv := newTestServer(t, hub, nil)
	conn := dial(t, srv, "uid-1")

	if ev := readEvent(t, conn); ev.Type != TypeWelcome || ev.Room != "user:uid-1" {
		t.Fatalf("expected welcome for user room, got %+v", ev)
	}

	if err := hub.Publish(context.Background(), UserRoom("uid-1"), "notification.created", map[string]string{"id": "n1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	ev := readEvent(t, conn)
	if ev.Type != "notification.created" || !strings.Contains(string(ev.Data), "n1") {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestHub_SubscribeIsAuthorized(t *testing.T) {
	hub := startHub(t, nil)
	srv := newTestServer(t, hub, &roomAuthorizer{allowed: map[string]bool{"chat:c1": true}})
	conn := dial(t, srv, "uid-1")
	readEvent(t, conn)

	if err := conn.WriteJSON(ClientMessage{Type: TypeSubscribe, Room: "chat:c2"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ev := readEvent(t, conn); ev.Type != TypeError || ev.Room != "chat:c2" {
		t.Fatalf("expected refusal, got %+v", ev)
	}

	if err := conn.WriteJSON(ClientMessage{Type: TypeSubscribe, Room: "chat:c1"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ev := readEvent(t, conn); ev.Type != TypeSubscribed {
		t.Fatalf("expected subscribed, got %+v", ev)
	}

	_ = hub.Publish(context.Background(), ChatRoom("c2"), "message.created", nil)
	_ = hub.Publish(context.Background(), ChatRoom("c1"), "message.created", map[string]int{"seq": 1})

	if ev := readEvent(t, conn); ev.Room != "chat:c1" {
		t.Errorf("expected only the authorized room, got %+v", ev)
	}
}

func TestHub_RejectsAnonymous(t *testing.T) {
	hub := startHub(t, nil)
	srv := newTestServer(t, hub, nil)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", resp)
	}
}

type loopbackRelay struct {
	ch chan []byte
}

func (r *loopbackRelay) Publish(ctx context.Context, payload []byte) error {
	r.ch <- payload
	return nil
}

func (r *loopbackRelay) Subscribe(ctx context.Context) (<-chan []byte, func() error) {
	return r.ch, func() error { return nil }
}

func TestHub_PublishGoesThroughRelay(t *testing.T) {
	relay := &loopbackRelay{ch: make(chan []byte, 4)}
	hub := startHub(t, relay)
	srv := newTestServer(t, hub, nil)
	conn := dial(t, srv, "uid-7")
	readEvent(t, conn)

	if err := hub.Publish(context.Background(), UserRoom("uid-7"), "booking.created", nil); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ev := readEvent(t, conn); ev.Type != "booking.created" {
		t.Errorf("expected relayed event, got %+v", ev)
	}
}

func TestHub_StopBeforeRunDoesNotBlock(t *testing.T) {
	hub := NewHub(nil, nil)
	done := make(chan struct{})
	go func() {
		hub.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Run")
	}
}

func TestParseRoom(t *testing.T) {
	tests := []struct {
		room     string
		kind, id string
		ok       bool
	}{
		{"ride:abc", "ride", "abc", true},
		{"user:uid:with:colons", "user", "uid:with:colons", true},
		{"ride:", "", "", false},
		{"nope", "", "", false},
	}
	for _, tt := range tests {
		kind, id, ok := ParseRoom(tt.room)
		if kind != tt.kind || id != tt.id || ok != tt.ok {
			t.Errorf("ParseRoom(%q) = %q %q %v", tt.room, kind, id, ok)
		}
	}
}
