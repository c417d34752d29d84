package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"campusrides/pkg/logger"
)

// Relay fans events out to every instance of the service. Publish sends
// the encoded event; Subscribe yields events published by any instance,
// this one included.
type Relay interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context) (<-chan []byte, func() error)
}

type subscription struct {
	client *Client
	room   string
}

type reply struct {
	client  *Client
	payload []byte
}

// Hub owns the room membership. All membership changes and deliveries go
// through Run's goroutine, so the maps need no lock.
type Hub struct {
	clients     map[*Client]struct{}
	rooms       map[string]map[*Client]struct{}
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan *Event
	replies     chan reply

	relay  Relay
	logger *logger.Logger

	clientCount atomic.Int64
	running     atomic.Bool
	stopOnce    sync.Once
	stop        chan struct{}
	done        chan struct{}
}

func NewHub(relay Relay, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients:     make(map[*Client]struct{}),
		rooms:       make(map[string]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		broadcast:   make(chan *Event, 256),
		replies:     make(chan reply),
		relay:       relay,
		logger:      log.WithField("component", "websocket_hub"),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run processes hub traffic until ctx is cancelled or Stop is called. On
// exit every client connection is closed.
func (h *Hub) Run(ctx context.Context) {
	if !h.running.CompareAndSwap(false, true) {
		return
	}
	defer close(h.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var relayed <-chan []byte
	if h.relay != nil {
		ch, closeSub := h.relay.Subscribe(ctx)
		relayed = ch
		defer func() {
			if err := closeSub(); err != nil {
				h.logger.WithError(err).Warn("Failed to close relay subscription")
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-h.stop:
			h.shutdown()
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.clientCount.Add(1)
			h.join(client, UserRoom(client.UserID))

		case client := <-h.unregister:
			h.remove(client)

		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; ok {
				h.join(sub.client, sub.room)
			}

		case sub := <-h.unsubscribe:
			h.leave(sub.client, sub.room)

		case event := <-h.broadcast:
			h.deliver(event)

		case r := <-h.replies:
			if _, ok := h.clients[r.client]; ok {
				select {
				case r.client.send <- r.payload:
				default:
				}
			}

		case payload, ok := <-relayed:
			if !ok {
				relayed = nil
				h.logger.Warn("Relay subscription closed")
				continue
			}
			var event Event
			if err := json.Unmarshal(payload, &event); err != nil {
				h.logger.WithError(err).Warn("Dropping malformed relayed event")
				continue
			}
			h.deliver(&event)
		}
	}
}

// Stop ends Run and waits for it to close all connections. It is safe to
// call more than once, and before Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	if h.running.Load() {
		<-h.done
	}
}

// Publish sends an event to every subscriber of room. With a relay the
// event reaches local subscribers through the relay too.
func (h *Hub) Publish(ctx context.Context, room, eventType string, data interface{}) error {
	event, err := NewEvent(eventType, room, data)
	if err != nil {
		return err
	}

	if h.relay != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return h.relay.Publish(ctx, payload)
	}

	select {
	case h.broadcast <- event:
		return nil
	case <-h.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) ClientCount() int64 {
	return h.clientCount.Load()
}

func (h *Hub) join(client *Client, room string) {
	members := h.rooms[room]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
}

func (h *Hub) leave(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	delete(client.rooms, room)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	for room := range client.rooms {
		h.leave(client, room)
	}
	delete(h.clients, client)
	h.clientCount.Add(-1)
	close(client.send)
}

// deliver drops clients whose buffer is full rather than blocking the hub.
func (h *Hub) deliver(event *Event) {
	members, ok := h.rooms[event.Room]
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode event")
		return
	}

	for client := range members {
		select {
		case client.send <- data:
		default:
			h.logger.WithUserID(client.UserID).Warn("Dropping slow websocket client")
			h.remove(client)
		}
	}
}

func (h *Hub) shutdown() {
	for client := range h.clients {
		h.remove(client)
	}
}

func (h *Hub) enqueue(ch chan subscription, sub subscription) {
	select {
	case ch <- sub:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
