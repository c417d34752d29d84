package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeBooking      NotificationType = "booking"
	NotificationTypeCancellation NotificationType = "cancellation"
	NotificationTypeChat         NotificationType = "chat"
	NotificationTypeRideStatus   NotificationType = "ride_status"
)

type Notification struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID    string              `json:"user_id" bson:"user_id"`
	Type      NotificationType    `json:"type" bson:"type"`
	Message   string              `json:"message" bson:"message"`
	Read      bool                `json:"read" bson:"read"`
	RideID    *primitive.ObjectID `json:"ride_id,omitempty" bson:"ride_id,omitempty"`
	ChatID    *primitive.ObjectID `json:"chat_id,omitempty" bson:"chat_id,omitempty"`
	BookingID *primitive.ObjectID `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	ReadAt    *time.Time          `json:"read_at,omitempty" bson:"read_at,omitempty"`
}

// DeepLink is the client route the notification points at.
func (n *Notification) DeepLink() string {
	switch {
	case n.ChatID != nil:
		return "/chat/" + n.ChatID.Hex()
	case n.RideID != nil && n.Type == NotificationTypeBooking:
		return "/my-rides/" + n.RideID.Hex()
	case n.RideID != nil:
		return "/home/rides/" + n.RideID.Hex()
	}
	return "/notifications"
}
