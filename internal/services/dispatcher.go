package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/observability"
	"campusrides/internal/repositories/interfaces"
	"campusrides/internal/utils"
	"campusrides/pkg/events"
	"campusrides/pkg/logger"
	"campusrides/pkg/push"
	"campusrides/pkg/websocket"
)

// LiveBroadcaster delivers an event to the subscribers of a room. The
// websocket hub implements it; core operations never depend on it
// succeeding.
type LiveBroadcaster interface {
	Publish(ctx context.Context, room, eventType string, data interface{}) error
}

// PushSender delivers a device notification through the provider of the
// device platform.
type PushSender interface {
	Send(ctx context.Context, platform string, request *push.NotificationRequest) (*push.NotificationResponse, error)
}

// Dispatcher fans committed changes out to live subscribers, devices and
// the event broker. Every delivery is best effort and runs in the
// background; Wait blocks until in-flight deliveries finish.
type Dispatcher struct {
	live    LiveBroadcaster
	push    PushSender
	events  events.Publisher
	users   interfaces.UserRepository
	cache   interfaces.Cache
	logger  *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

type DispatcherConfig struct {
	Live    LiveBroadcaster
	Push    PushSender
	Events  events.Publisher
	Users   interfaces.UserRepository
	Cache   interfaces.Cache
	Logger  *logger.Logger
	Timeout time.Duration
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.Events == nil {
		cfg.Events = events.NoopPublisher{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		live:    cfg.Live,
		push:    cfg.Push,
		events:  cfg.Events,
		users:   cfg.Users,
		cache:   cfg.Cache,
		logger:  cfg.Logger.WithField("component", "dispatcher"),
		timeout: cfg.Timeout,
	}
}

// Wait blocks until every background delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) goDetached(ctx context.Context, fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Broadcast sends a live event to room.
func (d *Dispatcher) Broadcast(ctx context.Context, room, eventType string, data interface{}) {
	if d.live == nil {
		return
	}
	d.goDetached(ctx, func(ctx context.Context) {
		if err := d.live.Publish(ctx, room, eventType, data); err != nil {
			d.logger.WithError(err).WithFields(map[string]interface{}{
				"room":  room,
				"event": eventType,
			}).Warn("Failed to broadcast live event")
		}
	})
}

// Notify delivers a stored notification to its recipient's user room and
// devices. The repository drops the cached unread count before the
// transaction commits, so a read in between may have cached the old value;
// it is dropped again here.
func (d *Dispatcher) Notify(ctx context.Context, n *models.Notification, title string) {
	if d.cache != nil {
		if err := d.cache.Delete(ctx, utils.CacheUnreadPrefix+n.UserID); err != nil {
			d.logger.WithError(err).WithUserID(n.UserID).Warn("Failed to invalidate unread count")
		}
	}
	d.Broadcast(ctx, websocket.UserRoom(n.UserID), utils.EventNotificationCreated, n)

	if d.push == nil || d.users == nil {
		return
	}
	d.goDetached(ctx, func(ctx context.Context) {
		d.pushToDevices(ctx, n, title)
	})
}

func (d *Dispatcher) pushToDevices(ctx context.Context, n *models.Notification, title string) {
	log := d.logger.WithUserID(n.UserID)

	devices, err := d.users.GetDevices(ctx, n.UserID)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			log.WithError(err).Warn("Failed to load push devices")
		}
		return
	}

	for _, device := range devices {
		resp, err := d.push.Send(ctx, string(device.Platform), &push.NotificationRequest{
			Token:       device.Token,
			Title:       title,
			Body:        n.Message,
			CollapseKey: string(n.Type),
			Data: map[string]string{
				"notification_id": n.ID.Hex(),
				"type":            string(n.Type),
				"link":            n.DeepLink(),
			},
		})
		if err == nil {
			observability.PushDeliveries.WithLabelValues(string(device.Platform), observability.OutcomeSuccess).Inc()
			continue
		}

		observability.PushDeliveries.WithLabelValues(string(device.Platform), observability.OutcomeError).Inc()
		if errors.Is(err, push.ErrUnsupportedPlatform) {
			continue
		}
		log.WithError(err).WithField("platform", device.Platform).Warn("Push delivery failed")

		if resp != nil && resp.Unregistered {
			if err := d.users.RemoveDevice(ctx, n.UserID, device.Token); err != nil {
				log.WithError(err).Warn("Failed to drop unregistered device")
			}
		}
	}
}

// Publish emits a domain event keyed by aggregate.
func (d *Dispatcher) Publish(ctx context.Context, eventType, key string, payload interface{}) {
	d.goDetached(ctx, func(ctx context.Context) {
		event, err := events.NewEvent(eventType, key, payload)
		if err == nil {
			err = d.events.Publish(ctx, event)
		}
		if err != nil {
			observability.EventsPublished.WithLabelValues(eventType, observability.OutcomeError).Inc()
			d.logger.WithError(err).WithField("event", eventType).Warn("Failed to publish domain event")
			return
		}
		observability.EventsPublished.WithLabelValues(eventType, observability.OutcomeSuccess).Inc()
	})
}
