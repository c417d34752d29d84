package websocket

import (
	"encoding/json"
	"strings"
	"time"
)

// Client to server message types.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"
)

// Server to client message types besides domain events.
const (
	TypeWelcome      = "welcome"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypePong         = "pong"
	TypeError        = "error"
)

// Event is the envelope for everything the server writes to a socket. Data
// stays raw so events relayed between instances are not decoded twice.
type Event struct {
	Type      string          `json:"type"`
	Room      string          `json:"room,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewEvent(eventType, room string, data interface{}) (*Event, error) {
	event := &Event{
		Type:      eventType,
		Room:      room,
		Timestamp: time.Now().UTC().UnixMilli(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		event.Data = raw
	}
	return event, nil
}

// ClientMessage is what a client may send.
type ClientMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

func UserRoom(userID string) string { return "user:" + userID }
func RideRoom(rideID string) string { return "ride:" + rideID }
func ChatRoom(chatID string) string { return "chat:" + chatID }

// ParseRoom splits "kind:id". ok is false for malformed names.
func ParseRoom(room string) (kind, id string, ok bool) {
	kind, id, found := strings.Cut(room, ":")
	if !found || kind == "" || id == "" {
		return "", "", false
	}
	return kind, id, true
}
