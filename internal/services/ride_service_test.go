package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/utils"
	"campusrides/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedCar(t *testing.T, env *testEnv, ownerID string, capacity int) *models.Car {
	t.Helper()
	car, err := env.carSvc.CreateCar(context.Background(), ownerID, &CarRequest{
		Name:         "Blue Golf",
		Model:        "Golf VII",
		LicensePlate: "ab-123",
		MaxCapacity:  capacity,
	})
	if err != nil {
		t.Fatalf("CreateCar: %v", err)
	}
	return car
}

func validRideRequest(carID primitive.ObjectID) *PublishRideRequest {
	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	return &PublishRideRequest{
		CarID:               carID,
		PickupLocation:      "North Campus",
		DestinationLocation: "Airport",
		StartTime:           start,
		EndTime:             start.Add(time.Hour),
		PricePerSeat:        7,
		AvailableSeats:      3,
	}
}

func TestPublishRide(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	car := seedCar(t, env, "owner", 4)

	ride, err := env.rideSvc.PublishRide(ctx, "owner", validRideRequest(car.ID))
	if err != nil {
		t.Fatalf("PublishRide: %v", err)
	}
	if ride.Status != models.RideStatusNotStarted {
		t.Errorf("expected not_started, got %s", ride.Status)
	}
	if ride.Capacity != 3 || ride.AvailableSeats != 3 {
		t.Errorf("expected capacity and seats 3, got %d/%d", ride.Capacity, ride.AvailableSeats)
	}

	mine, total, err := env.rideSvc.ListMyRides(ctx, "owner", utils.NewPaginationParams(1, 10))
	if err != nil || total != 1 || mine[0].ID != ride.ID {
		t.Errorf("expected the ride in ListMyRides, got %d (%v)", total, err)
	}
}

func TestPublishRide_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	car := seedCar(t, env, "owner", 4)
	otherCar := seedCar(t, env, "someone-else", 4)

	tests := []struct {
		name   string
		owner  string
		mutate func(r *PublishRideRequest)
		want   error
	}{
		{"same location", "owner", func(r *PublishRideRequest) { r.DestinationLocation = " north campus " }, ErrSameLocation},
		{"end before start", "owner", func(r *PublishRideRequest) { r.EndTime = r.StartTime.Add(-time.Minute) }, ErrInvalidSchedule},
		{"no seats", "owner", func(r *PublishRideRequest) { r.AvailableSeats = 0 }, ErrInvalidSeatCount},
		{"above car capacity", "owner", func(r *PublishRideRequest) { r.AvailableSeats = 5 }, ErrSeatsExceedCapacity},
		{"toll without tolls", "owner", func(r *PublishRideRequest) { r.TollPrice = 3 }, ErrInvalidTollPrice},
		{"negative toll", "owner", func(r *PublishRideRequest) { r.TollsIncluded = true; r.TollPrice = -1 }, ErrInvalidTollPrice},
		{"unknown car", "owner", func(r *PublishRideRequest) { r.CarID = primitive.NewObjectID() }, ErrCarNotFound},
		{"foreign car", "owner", func(r *PublishRideRequest) { r.CarID = otherCar.ID }, ErrNotCarOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRideRequest(car.ID)
			tt.mutate(req)
			if _, err := env.rideSvc.PublishRide(ctx, tt.owner, req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPublishRide_CapacityMessageNamesLimit(t *testing.T) {
	env := newTestEnv(t)
	car := seedCar(t, env, "owner", 4)
	req := validRideRequest(car.ID)
	req.AvailableSeats = 6

	_, err := env.rideSvc.PublishRide(context.Background(), "owner", req)
	if err == nil || !strings.HasSuffix(err.Error(), "of 4") {
		t.Errorf("expected capacity in message, got %v", err)
	}
}

func TestSearchRides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	early := env.seedRide(t, "owner", 2)
	late := env.seedRide(t, "owner", 2)
	_ = env.rides.UpdateStatus(ctx, late.ID, models.RideStatusWaitingForCustomer)
	started := env.seedRide(t, "owner", 2)
	_ = env.rides.UpdateStatus(ctx, started.ID, models.RideStatusStarted)

	env.store.mu.Lock()
	r := env.store.rides[late.ID]
	r.StartTime = r.StartTime.Add(time.Hour)
	env.store.rides[late.ID] = r
	env.store.mu.Unlock()

	rides, total, err := env.rideSvc.SearchRides(ctx, &models.RideSearchFilter{
		PickupLocation:      "North Campus",
		DestinationLocation: "Central Station",
	}, utils.NewPaginationParams(1, 10))
	if err != nil {
		t.Fatalf("SearchRides: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 bookable rides, got %d", total)
	}
	if rides[0].ID != early.ID || rides[1].ID != late.ID {
		t.Error("expected rides sorted by start time")
	}

	_, _, err = env.rideSvc.SearchRides(ctx, &models.RideSearchFilter{
		PickupLocation:      "Library",
		DestinationLocation: "library",
	}, utils.NewPaginationParams(1, 10))
	if !errors.Is(err, ErrSameLocation) {
		t.Errorf("expected ErrSameLocation, got %v", err)
	}
}

func TestUpdateStatus_OwnerOnlyAndNotifiesRiders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ride := env.seedRide(t, "owner", 4)

	booking, _ := env.bookingSvc.BookSeats(ctx, ride.ID, "alice", 1)
	cancelled, _ := env.bookingSvc.BookSeats(ctx, ride.ID, "bob", 1)
	if _, err := env.bookingSvc.CancelBooking(ctx, cancelled.ID, "bob"); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}

	if _, err := env.rideSvc.UpdateStatus(ctx, ride.ID, "alice", models.RideStatusStarted); !errors.Is(err, ErrNotRideOwner) {
		t.Errorf("expected ErrNotRideOwner, got %v", err)
	}
	if _, err := env.rideSvc.UpdateStatus(ctx, ride.ID, "owner", "flying"); !errors.Is(err, ErrInvalidRideStatus) {
		t.Errorf("expected ErrInvalidRideStatus, got %v", err)
	}

	updated, err := env.rideSvc.UpdateStatus(ctx, ride.ID, "owner", models.RideStatusWaitingForCustomer)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != models.RideStatusWaitingForCustomer {
		t.Errorf("expected waiting_for_customer, got %s", updated.Status)
	}
	env.dispatcher.Wait()

	aliceInbox, _, _ := env.notifSvc.List(ctx, "alice", false, utils.NewPaginationParams(1, 10))
	if len(aliceInbox) != 1 || aliceInbox[0].Type != models.NotificationTypeRideStatus {
		t.Fatalf("expected one ride_status notification for alice, got %+v", aliceInbox)
	}
	if aliceInbox[0].BookingID == nil || *aliceInbox[0].BookingID != booking.ID {
		t.Error("expected notification to reference alice's booking")
	}
	if !strings.Contains(aliceInbox[0].Message, "waiting for customer") {
		t.Errorf("unexpected message %q", aliceInbox[0].Message)
	}
	if n, _ := env.notifSvc.UnreadCount(ctx, "bob"); n != 0 {
		t.Errorf("cancelled rider should not be notified, got %d", n)
	}
	if len(env.live.find(websocket.RideRoom(ride.ID.Hex()), utils.EventRideStatusChanged)) != 1 {
		t.Error("expected a ride status event")
	}
}

func TestUpdateStatus_PermissiveByDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ride := env.seedRide(t, "owner", 2)

	if _, err := env.rideSvc.UpdateStatus(ctx, ride.ID, "owner", models.RideStatusFinished); err != nil {
		t.Fatalf("finish: %v", err)
	}
	reopened, err := env.rideSvc.UpdateStatus(ctx, ride.ID, "owner", models.RideStatusNotStarted)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != models.RideStatusNotStarted {
		t.Errorf("expected not_started, got %s", reopened.Status)
	}
}

func TestUpdateStatus_StrictTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	strict := NewRideService(env.store, env.rides, env.cars, env.bookings, env.notifs, env.dispatcher, true, nil)
	ride := env.seedRide(t, "owner", 2)

	for _, skip := range []models.RideStatus{models.RideStatusStarted, models.RideStatusFinished} {
		if _, err := strict.UpdateStatus(ctx, ride.ID, "owner", skip); !errors.Is(err, ErrInvalidStatusTransition) {
			t.Errorf("expected skipping to %s to fail, got %v", skip, err)
		}
	}
	for _, next := range []models.RideStatus{models.RideStatusWaitingForCustomer, models.RideStatusStarted, models.RideStatusFinished} {
		if _, err := strict.UpdateStatus(ctx, ride.ID, "owner", next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	if _, err := strict.UpdateStatus(ctx, ride.ID, "owner", models.RideStatusCancelled); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("expected terminal state to stay, got %v", err)
	}
}

func TestUpdateStatus_NotificationFailureKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ride := env.seedRide(t, "owner", 2)
	if _, err := env.bookingSvc.BookSeats(ctx, ride.ID, "alice", 1); err != nil {
		t.Fatalf("BookSeats: %v", err)
	}

	env.store.notificationErr = errInjected
	if _, err := env.rideSvc.UpdateStatus(ctx, ride.ID, "owner", models.RideStatusStarted); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if got := env.ride(t, ride.ID).Status; got != models.RideStatusNotStarted {
		t.Errorf("expected status rolled back, got %s", got)
	}
}

func TestUpdateStatus_DropsRideCacheAfterCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ride := env.seedRide(t, "owner", 2)

	if _, err := env.rideSvc.UpdateStatus(ctx, ride.ID, "owner", models.RideStatusStarted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got := env.store.committedInvalidations; len(got) != 1 || got[0] != ride.ID {
		t.Errorf("expected one post-commit cache drop, got %v", got)
	}
}
