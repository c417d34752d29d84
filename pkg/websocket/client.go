package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"campusrides/pkg/logger"
)

const writeWait = 10 * time.Second

// Authorizer decides whether userID may receive events of room.
type Authorizer interface {
	AuthorizeRoom(ctx context.Context, userID, room string) error
}

type Client struct {
	UserID string

	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	rooms      map[string]struct{}
	authorizer Authorizer
	options    Options
	logger     *logger.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, userID string, authorizer Authorizer, opts Options, log *logger.Logger) *Client {
	return &Client{
		UserID:     userID,
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, opts.SendBufferSize),
		rooms:      make(map[string]struct{}),
		authorizer: authorizer,
		options:    opts,
		logger:     log.WithUserID(userID),
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.options.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.options.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.options.PongTimeout))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Debug("WebSocket closed unexpectedly")
			}
			return
		}
		c.handleMessage(ctx, payload)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.options.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(ctx context.Context, payload []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.reply(TypeError, "", map[string]string{"error": "malformed message"})
		return
	}

	switch msg.Type {
	case TypeSubscribe:
		if _, _, ok := ParseRoom(msg.Room); !ok {
			c.reply(TypeError, msg.Room, map[string]string{"error": "unknown room"})
			return
		}
		if c.authorizer != nil {
			if err := c.authorizer.AuthorizeRoom(ctx, c.UserID, msg.Room); err != nil {
				c.logger.WithField("room", msg.Room).WithError(err).Debug("Room subscription refused")
				c.reply(TypeError, msg.Room, map[string]string{"error": "subscription refused"})
				return
			}
		}
		c.hub.enqueue(c.hub.subscribe, subscription{client: c, room: msg.Room})
		c.reply(TypeSubscribed, msg.Room, nil)

	case TypeUnsubscribe:
		if msg.Room == UserRoom(c.UserID) {
			return
		}
		c.hub.enqueue(c.hub.unsubscribe, subscription{client: c, room: msg.Room})
		c.reply(TypeUnsubscribed, msg.Room, nil)

	case TypePing:
		c.reply(TypePong, "", nil)

	default:
		c.reply(TypeError, "", map[string]string{"error": "unsupported message type"})
	}
}

// reply goes through the hub, which owns the send buffer.
func (c *Client) reply(eventType, room string, data interface{}) {
	event, err := NewEvent(eventType, room, data)
	if err != nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	select {
	case c.hub.replies <- reply{client: c, payload: payload}:
	case <-c.hub.done:
	}
}
