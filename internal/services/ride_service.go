package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/observability"
	"campusrides/internal/repositories/interfaces"
	"campusrides/internal/utils"
	"campusrides/pkg/logger"
	"campusrides/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PublishRideRequest struct {
	CarID               primitive.ObjectID
	PickupLocation      string
	DestinationLocation string
	PickupCity          string
	DestinationCity     string
	StartTime           time.Time
	EndTime             time.Time
	PricePerSeat        float64
	AvailableSeats      int
	AirConditioning     bool
	WifiAvailable       bool
	TollsIncluded       bool
	TollPrice           float64
}

type RideService interface {
	PublishRide(ctx context.Context, ownerID string, req *PublishRideRequest) (*models.Ride, error)
	GetRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error)
	ListMyRides(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	SearchRides(ctx context.Context, filter *models.RideSearchFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	// UpdateStatus lets the owner move the ride through its lifecycle and
	// notifies every rider holding an active booking.
	UpdateStatus(ctx context.Context, rideID primitive.ObjectID, actorID string, status models.RideStatus) (*models.Ride, error)
}

type rideService struct {
	tx            interfaces.Transactor
	rides         interfaces.RideRepository
	cars          interfaces.CarRepository
	bookings      interfaces.BookingRepository
	notifications interfaces.NotificationRepository
	dispatcher    *Dispatcher
	strict        bool
	logger        *logger.Logger
}

func NewRideService(
	tx interfaces.Transactor,
	rides interfaces.RideRepository,
	cars interfaces.CarRepository,
	bookings interfaces.BookingRepository,
	notifications interfaces.NotificationRepository,
	dispatcher *Dispatcher,
	strictTransitions bool,
	log *logger.Logger,
) RideService {
	if log == nil {
		log = logger.NewNop()
	}
	return &rideService{
		tx:            tx,
		rides:         rides,
		cars:          cars,
		bookings:      bookings,
		notifications: notifications,
		dispatcher:    dispatcher,
		strict:        strictTransitions,
		logger:        log.WithField("service", "ride"),
	}
}

func (s *rideService) PublishRide(ctx context.Context, ownerID string, req *PublishRideRequest) (*models.Ride, error) {
	pickup := strings.TrimSpace(req.PickupLocation)
	destination := strings.TrimSpace(req.DestinationLocation)
	if strings.EqualFold(pickup, destination) {
		return nil, ErrSameLocation
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidSchedule
	}
	if req.AvailableSeats < 1 {
		return nil, ErrInvalidSeatCount
	}
	if req.TollPrice < 0 || (!req.TollsIncluded && req.TollPrice != 0) {
		return nil, ErrInvalidTollPrice
	}

	car, err := s.cars.GetByID(ctx, req.CarID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	if car.OwnerID != ownerID {
		return nil, ErrNotCarOwner
	}
	if req.AvailableSeats > car.MaxCapacity {
		return nil, fmt.Errorf("%w of %d", ErrSeatsExceedCapacity, car.MaxCapacity)
	}

	ride := &models.Ride{
		OwnerID:             ownerID,
		CarID:               car.ID,
		PickupLocation:      pickup,
		DestinationLocation: destination,
		PickupCity:          strings.TrimSpace(req.PickupCity),
		DestinationCity:     strings.TrimSpace(req.DestinationCity),
		StartTime:           req.StartTime.UTC(),
		EndTime:             req.EndTime.UTC(),
		PricePerSeat:        req.PricePerSeat,
		AvailableSeats:      req.AvailableSeats,
		Capacity:            req.AvailableSeats,
		AirConditioning:     req.AirConditioning,
		WifiAvailable:       req.WifiAvailable,
		TollsIncluded:       req.TollsIncluded,
		TollPrice:           req.TollPrice,
		Status:              models.RideStatusNotStarted,
	}
	if err := s.rides.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("failed to publish ride: %w", err)
	}

	observability.RidesPublished.Inc()
	s.logger.WithUserID(ownerID).LogRideEvent(ride.ID, "published", map[string]interface{}{
		"seats": ride.Capacity,
		"route": ride.RouteLabel(),
	})
	if s.dispatcher != nil {
		s.dispatcher.Publish(ctx, "ride.published", ride.ID.Hex(), ride)
	}

	return ride, nil
}

func (s *rideService) GetRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return ride, nil
}

func (s *rideService) ListMyRides(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	rides, total, err := s.rides.GetByOwnerID(ctx, ownerID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}
	return rides, total, nil
}

// SearchRides matches pickup and destination exactly and only returns rides
// that can still be booked.
func (s *rideService) SearchRides(ctx context.Context, filter *models.RideSearchFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	filter.PickupLocation = strings.TrimSpace(filter.PickupLocation)
	filter.DestinationLocation = strings.TrimSpace(filter.DestinationLocation)
	if strings.EqualFold(filter.PickupLocation, filter.DestinationLocation) {
		return nil, 0, ErrSameLocation
	}
	filter.Statuses = models.BookableRideStatuses()

	rides, total, err := s.rides.Search(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search rides: %w", err)
	}
	return rides, total, nil
}

func (s *rideService) UpdateStatus(ctx context.Context, rideID primitive.ObjectID, actorID string, status models.RideStatus) (*models.Ride, error) {
	if !status.IsValid() {
		return nil, ErrInvalidRideStatus
	}

	var (
		ride          *models.Ride
		previous      models.RideStatus
		notifications []*models.Notification
	)

	start := time.Now()
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		r, err := s.rides.GetByID(ctx, rideID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrRideNotFound
			}
			return err
		}
		if r.OwnerID != actorID {
			return ErrNotRideOwner
		}
		if s.strict && !r.Status.CanTransitionTo(status) {
			return ErrInvalidStatusTransition
		}

		if err := s.rides.UpdateStatus(ctx, rideID, status); err != nil {
			return err
		}

		active, err := s.bookings.GetByRideID(ctx, rideID, models.BookingStatusActive)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		notified := make(map[string]bool, len(active))
		created := make([]*models.Notification, 0, len(active))
		for _, b := range active {
			if notified[b.RiderID] {
				continue
			}
			notified[b.RiderID] = true

			n := &models.Notification{
				UserID:    b.RiderID,
				Type:      models.NotificationTypeRideStatus,
				Message:   fmt.Sprintf("Your ride %s is now %s", r.RouteLabel(), statusLabel(status)),
				RideID:    &r.ID,
				BookingID: &b.ID,
				CreatedAt: now,
			}
			if err := s.notifications.Create(ctx, n); err != nil {
				return err
			}
			created = append(created, n)
		}

		previous = r.Status
		r.Status = status
		r.UpdatedAt = now
		ride, notifications = r, created
		return nil
	})
	observability.TransactionDuration.WithLabelValues("update_ride_status").Observe(time.Since(start).Seconds())

	if err != nil {
		if IsClientError(err) {
			return nil, err
		}
		s.logger.WithRideID(rideID).WithError(err).Error("Failed to update ride status")
		return nil, fmt.Errorf("failed to update ride status: %w", err)
	}
	s.rides.InvalidateCache(ctx, rideID)

	observability.RideStatusChanges.WithLabelValues(string(status)).Inc()
	s.logger.WithUserID(actorID).LogRideEvent(rideID, "status_changed", map[string]interface{}{
		"from": previous,
		"to":   status,
	})

	if s.dispatcher != nil {
		payload := map[string]interface{}{
			"ride_id":         ride.ID.Hex(),
			"status":          ride.Status,
			"previous_status": previous,
			"available_seats": ride.AvailableSeats,
		}
		s.dispatcher.Broadcast(ctx, websocket.RideRoom(ride.ID.Hex()), utils.EventRideStatusChanged, payload)
		for _, n := range notifications {
			s.dispatcher.Notify(ctx, n, "Ride update")
		}
		s.dispatcher.Publish(ctx, utils.EventRideStatusChanged, ride.ID.Hex(), payload)
	}

	return ride, nil
}

// statusLabel turns waiting_for_customer into "waiting for customer".
func statusLabel(status models.RideStatus) string {
	return strings.ReplaceAll(string(status), "_", " ")
}
