package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string

const (
	RideStatusNotStarted         RideStatus = "not_started"
	RideStatusWaitingForCustomer RideStatus = "waiting_for_customer"
	RideStatusStarted            RideStatus = "started"
	RideStatusFinished           RideStatus = "finished"
	RideStatusCancelled          RideStatus = "cancelled"
)

// rideTransitions is the forward graph of the ride lifecycle. It is only
// enforced when strict transitions are enabled.
var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusNotStarted:         {RideStatusWaitingForCustomer, RideStatusCancelled},
	RideStatusWaitingForCustomer: {RideStatusStarted, RideStatusCancelled},
	RideStatusStarted:            {RideStatusFinished, RideStatusCancelled},
}

func (s RideStatus) IsValid() bool {
	switch s {
	case RideStatusNotStarted, RideStatusWaitingForCustomer, RideStatusStarted,
		RideStatusFinished, RideStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the ride has ended.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusFinished || s == RideStatusCancelled
}

// IsBookable reports whether seats can still be booked in this state.
func (s RideStatus) IsBookable() bool {
	return s == RideStatusNotStarted || s == RideStatusWaitingForCustomer
}

// CanTransitionTo reports whether next follows s in the lifecycle graph.
// Re-writing the current status is always allowed.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range rideTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func BookableRideStatuses() []RideStatus {
	return []RideStatus{RideStatusNotStarted, RideStatusWaitingForCustomer}
}

type Ride struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID             string             `json:"owner_id" bson:"owner_id"`
	CarID               primitive.ObjectID `json:"car_id" bson:"car_id"`
	PickupLocation      string             `json:"pickup_location" bson:"pickup_location"`
	DestinationLocation string             `json:"destination_location" bson:"destination_location"`
	PickupCity          string             `json:"pickup_city,omitempty" bson:"pickup_city,omitempty"`
	DestinationCity     string             `json:"destination_city,omitempty" bson:"destination_city,omitempty"`
	StartTime           time.Time          `json:"start_time" bson:"start_time"`
	EndTime             time.Time          `json:"end_time" bson:"end_time"`
	PricePerSeat        float64            `json:"price_per_seat" bson:"price_per_seat"`
	AvailableSeats      int                `json:"available_seats" bson:"available_seats"`
	Capacity            int                `json:"capacity" bson:"capacity"`
	AirConditioning     bool               `json:"air_conditioning" bson:"air_conditioning"`
	WifiAvailable       bool               `json:"wifi_available" bson:"wifi_available"`
	TollsIncluded       bool               `json:"tolls_included" bson:"tolls_included"`
	TollPrice           float64            `json:"toll_price" bson:"toll_price"`
	Status              RideStatus         `json:"status" bson:"status"`
	CreatedAt           time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" bson:"updated_at"`
}

// RouteLabel is the human readable "from X to Y" used in notification texts.
// Resolved city names win over the raw location strings.
func (r *Ride) RouteLabel() string {
	from, to := r.PickupLocation, r.DestinationLocation
	if r.PickupCity != "" {
		from = r.PickupCity
	}
	if r.DestinationCity != "" {
		to = r.DestinationCity
	}
	return "from " + from + " to " + to
}

type RideSearchFilter struct {
	PickupLocation      string
	DestinationLocation string
	MaxPrice            *float64
	MinSeats            int
	AirConditioning     bool
	WifiAvailable       bool
	Date                *time.Time
	Statuses            []RideStatus
}
