package services

import (
	"context"
	"testing"
	"time"

	"campusrides/internal/models"
	"campusrides/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testEnv struct {
	store      *memStore
	rides      *fakeRideRepo
	bookings   *fakeBookingRepo
	notifs     *fakeNotificationRepo
	chats      *fakeChatRepo
	messages   *fakeMessageRepo
	cars       *fakeCarRepo
	users      *fakeUserRepo
	live       *fakeBroadcaster
	push       *fakePush
	cache      *fakeCache
	dispatcher *Dispatcher
	storage    *storage.LocalStorage
	media      MediaService
	bookingSvc BookingService
	rideSvc    RideService
	chatSvc    ChatService
	carSvc     CarService
	profileSvc ProfileService
	notifSvc   NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	env := &testEnv{
		store:    store,
		rides:    &fakeRideRepo{s: store},
		bookings: &fakeBookingRepo{s: store},
		notifs:   &fakeNotificationRepo{s: store},
		chats:    &fakeChatRepo{s: store},
		messages: &fakeMessageRepo{s: store},
		cars:     &fakeCarRepo{s: store},
		users:    &fakeUserRepo{s: store},
		live:     &fakeBroadcaster{},
		push:     &fakePush{},
		cache:    newFakeCache(),
	}
	env.dispatcher = NewDispatcher(DispatcherConfig{
		Live:    env.live,
		Push:    env.push,
		Users:   env.users,
		Cache:   env.cache,
		Timeout: time.Second,
	})

	local, err := storage.NewLocalStorage(t.TempDir(), "http://files.test", "test-secret")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	env.storage = local
	env.media = NewMediaService(local, time.Minute, time.Hour, nil)

	env.bookingSvc = NewBookingService(store, env.rides, env.bookings, env.notifs, env.dispatcher, 8, nil)
	env.rideSvc = NewRideService(store, env.rides, env.cars, env.bookings, env.notifs, env.dispatcher, false, nil)
	env.carSvc = NewCarService(env.cars, env.media, 20, nil)
	env.profileSvc = NewProfileService(env.users, env.media, nil)
	env.notifSvc = NewNotificationService(env.notifs)
	env.chatSvc = NewChatService(ChatServiceDeps{
		Tx:            store,
		Chats:         env.chats,
		Messages:      env.messages,
		Rides:         env.rides,
		Bookings:      env.bookings,
		Users:         env.users,
		Notifications: env.notifs,
		Dispatcher:    env.dispatcher,
	})

	t.Cleanup(env.dispatcher.Wait)
	return env
}

// seedRide stores a bookable ride with the given capacity owned by ownerID.
func (e *testEnv) seedRide(t *testing.T, ownerID string, seats int) *models.Ride {
	t.Helper()
	ride := &models.Ride{
		OwnerID:             ownerID,
		CarID:               primitive.NewObjectID(),
		PickupLocation:      "North Campus",
		DestinationLocation: "Central Station",
		StartTime:           time.Now().Add(24 * time.Hour),
		EndTime:             time.Now().Add(25 * time.Hour),
		PricePerSeat:        4.5,
		AvailableSeats:      seats,
		Capacity:            seats,
		Status:              models.RideStatusNotStarted,
	}
	if err := e.rides.Create(context.Background(), ride); err != nil {
		t.Fatalf("seed ride: %v", err)
	}
	return ride
}

func (e *testEnv) ride(t *testing.T, id primitive.ObjectID) *models.Ride {
	t.Helper()
	ride, err := e.rides.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get ride: %v", err)
	}
	return ride
}

// activeSeats sums seats of active bookings on rideID.
func (e *testEnv) activeSeats(t *testing.T, rideID primitive.ObjectID) int {
	t.Helper()
	active, err := e.bookings.GetByRideID(context.Background(), rideID, models.BookingStatusActive)
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	total := 0
	for _, b := range active {
		total += b.SeatsBooked
	}
	return total
}

func (e *testEnv) counts() (bookings, notifications int) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return len(e.store.bookings), len(e.store.notifications)
}
