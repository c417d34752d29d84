package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"campusrides/pkg/logger"
)

type Options struct {
	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
	MaxMessageSize   int64
	SendBufferSize   int
	AllowedOrigins   []string
}

func (o Options) withDefaults() Options {
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongTimeout {
		o.PingInterval = (o.PongTimeout * 9) / 10
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 4096
	}
	if o.SendBufferSize <= 0 {
		o.SendBufferSize = 64
	}
	return o
}

// Handler upgrades authenticated requests and attaches them to the hub.
type Handler struct {
	hub        *Hub
	upgrader   websocket.Upgrader
	authorizer Authorizer
	options    Options
	userID     func(c *gin.Context) string
	logger     *logger.Logger
}

// NewHandler builds the upgrade handler. userID extracts the caller set by
// the auth middleware; an empty result is rejected with 401.
func NewHandler(hub *Hub, authorizer Authorizer, opts Options, userID func(c *gin.Context) string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	opts = opts.withDefaults()

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   opts.ReadBufferSize,
			WriteBufferSize:  opts.WriteBufferSize,
			HandshakeTimeout: opts.HandshakeTimeout,
			CheckOrigin:      originChecker(opts.AllowedOrigins),
		},
		authorizer: authorizer,
		options:    opts,
		userID:     userID,
		logger:     log.WithField("component", "websocket"),
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := h.userID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).WithUserID(userID).Warn("WebSocket upgrade failed")
		return
	}

	client := newClient(h.hub, conn, userID, h.authorizer, h.options, h.logger)
	if !h.hub.registerClient(client) {
		_ = conn.Close()
		return
	}
	client.reply(TypeWelcome, UserRoom(userID), nil)

	// The request context ends when the handler returns, so the pumps get a
	// detached one.
	go client.writePump()
	go client.readPump(context.WithoutCancel(c.Request.Context()))
}

// originChecker allows the listed origins, everything for "*", and falls
// back to gorilla's same-origin check when the list is empty.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
