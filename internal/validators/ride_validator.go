package validators

import (
	"strings"
	"time"
)

type PublishRideRequest struct {
	CarID               string    `json:"car_id" validate:"required,object_id"`
	PickupLocation      string    `json:"pickup_location" validate:"required,max=200"`
	DestinationLocation string    `json:"destination_location" validate:"required,max=200"`
	PickupCity          string    `json:"pickup_city" validate:"omitempty,max=100"`
	DestinationCity     string    `json:"destination_city" validate:"omitempty,max=100"`
	StartTime           time.Time `json:"start_time" validate:"required"`
	EndTime             time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	PricePerSeat        float64   `json:"price_per_seat" validate:"min=0,max=10000"`
	AvailableSeats      int       `json:"available_seats" validate:"required,min=1,max=20"`
	AirConditioning     bool      `json:"air_conditioning"`
	WifiAvailable       bool      `json:"wifi_available"`
	TollsIncluded       bool      `json:"tolls_included"`
	TollPrice           float64   `json:"toll_price" validate:"min=0,max=10000"`
}

// SearchRidesQuery is bound from the query string.
type SearchRidesQuery struct {
	Pickup          string   `form:"pickup" json:"pickup" validate:"required,max=200"`
	Destination     string   `form:"destination" json:"destination" validate:"required,max=200"`
	MaxPrice        *float64 `form:"max_price" json:"max_price" validate:"omitempty,min=0"`
	MinSeats        int      `form:"min_seats" json:"min_seats" validate:"omitempty,min=1,max=20"`
	AirConditioning bool     `form:"air_conditioning" json:"air_conditioning"`
	WifiAvailable   bool     `form:"wifi_available" json:"wifi_available"`
	Date            string   `form:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Day parses Date as a UTC calendar day. It returns nil when no date was
// given.
func (q *SearchRidesQuery) Day() *time.Time {
	if q.Date == "" {
		return nil
	}
	day, err := time.Parse("2006-01-02", q.Date)
	if err != nil {
		return nil
	}
	return &day
}

type UpdateRideStatusRequest struct {
	Status string `json:"status" validate:"required,ride_status"`
}

func ValidatePublishRide(req *PublishRideRequest) ValidationErrors {
	errs := ValidateStruct(req)

	if req.PickupLocation != "" && strings.EqualFold(strings.TrimSpace(req.PickupLocation), strings.TrimSpace(req.DestinationLocation)) {
		errs = append(errs, ValidationError{
			Field:   "destination_location",
			Tag:     "nefield",
			Message: "Pickup and destination must be different",
		})
	}
	if !req.TollsIncluded && req.TollPrice != 0 {
		errs = append(errs, ValidationError{
			Field:   "toll_price",
			Tag:     "tolls_included",
			Message: "Toll price requires tolls_included",
		})
	}

	return errs
}
