package validators

import (
	"testing"
	"time"
)

func TestValidatePublishRide(t *testing.T) {
	start := time.Now().Add(time.Hour)
	valid := func() *PublishRideRequest {
		return &PublishRideRequest{
			CarID:               "64b7f0c2a1b2c3d4e5f60718",
			PickupLocation:      "North Campus",
			DestinationLocation: "Airport",
			StartTime:           start,
			EndTime:             start.Add(time.Hour),
			PricePerSeat:        5,
			AvailableSeats:      3,
		}
	}

	tests := []struct {
		name   string
		mutate func(r *PublishRideRequest)
		field  string
	}{
		{"valid", func(r *PublishRideRequest) {}, ""},
		{"bad car id", func(r *PublishRideRequest) { r.CarID = "nope" }, "car_id"},
		{"missing pickup", func(r *PublishRideRequest) { r.PickupLocation = "" }, "pickup_location"},
		{"end before start", func(r *PublishRideRequest) { r.EndTime = start.Add(-time.Minute) }, "end_time"},
		{"no seats", func(r *PublishRideRequest) { r.AvailableSeats = 0 }, "available_seats"},
		{"same place", func(r *PublishRideRequest) { r.DestinationLocation = "north campus" }, "destination_location"},
		{"toll without tolls", func(r *PublishRideRequest) { r.TollPrice = 2 }, "toll_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			errs := ValidatePublishRide(req)
			if tt.field == "" {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			if _, ok := errs.Details()[tt.field]; !ok {
				t.Errorf("expected error on %s, got %v", tt.field, errs)
			}
		})
	}
}

func TestCustomTags(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		ok    bool
	}{
		{"ride status", &UpdateRideStatusRequest{Status: "waiting_for_customer"}, true},
		{"unknown ride status", &UpdateRideStatusRequest{Status: "teleporting"}, false},
		{"platform", &DeviceRequest{Token: "t", Platform: "ios"}, true},
		{"unknown platform", &DeviceRequest{Token: "t", Platform: "palm"}, false},
		{"upload", &UploadURLRequest{Kind: "car", ContentType: "image/webp"}, true},
		{"upload pdf", &UploadURLRequest{Kind: "car", ContentType: "application/pdf"}, false},
		{"upload kind", &UploadURLRequest{Kind: "avatar", ContentType: "image/png"}, false},
		{"key", &CarImageRequest{Key: "cars/u1/a.png"}, true},
		{"traversal key", &CarImageRequest{Key: "cars/u1/../u2/a.png"}, false},
		{"absolute key", &CarImageRequest{Key: "/etc/passwd"}, false},
		{"email", &EmailRequest{To: []string{"a@uni.edu"}, Subject: "s", HTML: "<p>x</p>"}, true},
		{"bad email", &EmailRequest{To: []string{"not-an-email"}, Subject: "s", HTML: "x"}, false},
		{"no recipients", &EmailRequest{Subject: "s", HTML: "x"}, false},
		{"search date", &SearchRidesQuery{Pickup: "a", Destination: "b", Date: "2026-10-16"}, true},
		{"search bad date", &SearchRidesQuery{Pickup: "a", Destination: "b", Date: "16.10.2026"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStruct(tt.value)
			if tt.ok && len(errs) != 0 {
				t.Errorf("expected valid, got %v", errs)
			}
			if !tt.ok && len(errs) == 0 {
				t.Error("expected validation errors")
			}
		})
	}
}

func TestSearchRidesQuery_Day(t *testing.T) {
	q := &SearchRidesQuery{Date: "2026-10-16"}
	day := q.Day()
	if day == nil || day.Day() != 16 || day.Location() != time.UTC {
		t.Errorf("unexpected day %v", day)
	}
	if (&SearchRidesQuery{}).Day() != nil {
		t.Error("expected nil day without date")
	}
}
