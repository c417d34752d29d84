package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) IsValid() bool {
	return s == BookingStatusActive || s == BookingStatusCancelled
}

type Booking struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RideID      primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	RiderID     string             `json:"rider_id" bson:"rider_id"`
	SeatsBooked int                `json:"seats_booked" bson:"seats_booked"`
	Status      BookingStatus      `json:"status" bson:"status"`
	BookedAt    time.Time          `json:"booked_at" bson:"booked_at"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusActive
}
