package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/observability"
	"campusrides/internal/repositories/interfaces"
	"campusrides/internal/utils"
	"campusrides/pkg/logger"
	"campusrides/pkg/websocket"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingService interface {
	// BookSeats reserves seats on a ride, stores the booking and notifies
	// the owner as one atomic unit.
	BookSeats(ctx context.Context, rideID primitive.ObjectID, riderID string, seats int) (*models.Booking, error)
	// CancelBooking flips an active booking to cancelled, returns its seats
	// to the ride and notifies the owner as one atomic unit.
	CancelBooking(ctx context.Context, bookingID primitive.ObjectID, actorID string) (*models.Booking, error)

	GetBooking(ctx context.Context, bookingID primitive.ObjectID, viewerID string) (*models.Booking, error)
	ListMyBookings(ctx context.Context, riderID string, status models.BookingStatus, params *utils.PaginationParams) ([]*models.Booking, int64, error)
	ListRideBookings(ctx context.Context, rideID primitive.ObjectID, ownerID string) ([]*models.Booking, error)
}

type bookingService struct {
	tx            interfaces.Transactor
	rides         interfaces.RideRepository
	bookings      interfaces.BookingRepository
	notifications interfaces.NotificationRepository
	dispatcher    *Dispatcher
	maxSeats      int
	logger        *logger.Logger
}

func NewBookingService(
	tx interfaces.Transactor,
	rides interfaces.RideRepository,
	bookings interfaces.BookingRepository,
	notifications interfaces.NotificationRepository,
	dispatcher *Dispatcher,
	maxSeats int,
	log *logger.Logger,
) BookingService {
	if log == nil {
		log = logger.NewNop()
	}
	return &bookingService{
		tx:            tx,
		rides:         rides,
		bookings:      bookings,
		notifications: notifications,
		dispatcher:    dispatcher,
		maxSeats:      maxSeats,
		logger:        log.WithField("service", "booking"),
	}
}

func (s *bookingService) BookSeats(ctx context.Context, rideID primitive.ObjectID, riderID string, seats int) (*models.Booking, error) {
	if seats <= 0 || (s.maxSeats > 0 && seats > s.maxSeats) {
		observability.BookingsTotal.WithLabelValues(observability.OutcomeRejected).Inc()
		return nil, ErrInvalidSeatCount
	}

	var (
		booking      *models.Booking
		ride         *models.Ride
		notification *models.Notification
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

		if r.OwnerID == riderID {
			return ErrOwnRide
		}
		if !r.Status.IsBookable() {
			return ErrRideNotBookable
		}

		_, err = s.bookings.GetActiveByRideAndRider(ctx, rideID, riderID)
		if err == nil {
			return ErrDuplicateBooking
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			return err
		}

		if err := s.rides.ReserveSeats(ctx, rideID, seats); err != nil {
			if errors.Is(err, interfaces.ErrInsufficientSeats) {
				return ErrInsufficientSeats
			}
			return err
		}

		now := time.Now().UTC()
		b := &models.Booking{
			RideID:      rideID,
			RiderID:     riderID,
			SeatsBooked: seats,
			Status:      models.BookingStatusActive,
			BookedAt:    now,
		}
		if err := s.bookings.Create(ctx, b); err != nil {
			if errors.Is(err, interfaces.ErrDuplicate) {
				return ErrDuplicateBooking
			}
			return err
		}

		n := &models.Notification{
			UserID:    r.OwnerID,
			Type:      models.NotificationTypeBooking,
			Message:   fmt.Sprintf("Someone booked %d seat(s) on your ride %s", seats, r.RouteLabel()),
			RideID:    &r.ID,
			BookingID: &b.ID,
			CreatedAt: now,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			return err
		}

		r.AvailableSeats -= seats
		booking, ride, notification = b, r, n
		return nil
	})
	observability.TransactionDuration.WithLabelValues("book_seats").Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, s.failed(observability.BookingsTotal, "book seats", err)
	}
	s.rides.InvalidateCache(ctx, rideID)

	observability.BookingsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
	observability.SeatsBooked.Add(float64(seats))
	s.logger.WithUserID(riderID).LogBookingEvent(booking.ID, rideID, "booked", seats)

	s.announce(ctx, ride, booking, notification, utils.EventBookingCreated, "New booking")
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID primitive.ObjectID, actorID string) (*models.Booking, error) {
	var (
		booking      *models.Booking
		ride         *models.Ride
		notification *models.Notification
	)

	start := time.Now()
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if b.RiderID != actorID {
			return ErrNotBookingRider
		}
		if !b.IsActive() {
			return ErrBookingAlreadyCancelled
		}

		now := time.Now().UTC()
		if err := s.bookings.MarkCancelled(ctx, bookingID, now); err != nil {
			if errors.Is(err, interfaces.ErrBookingNotActive) {
				return ErrBookingAlreadyCancelled
			}
			return err
		}

		r, err := s.rides.GetByID(ctx, b.RideID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrRideNotFound
			}
			return err
		}

		if err := s.rides.ReleaseSeats(ctx, r.ID, b.SeatsBooked); err != nil {
			return err
		}

		n := &models.Notification{
			UserID:    r.OwnerID,
			Type:      models.NotificationTypeCancellation,
			Message:   fmt.Sprintf("A booking for %d seat(s) on your ride %s has been cancelled", b.SeatsBooked, r.RouteLabel()),
			RideID:    &r.ID,
			BookingID: &b.ID,
			CreatedAt: now,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			return err
		}

		b.Status = models.BookingStatusCancelled
		b.CancelledAt = &now
		b.UpdatedAt = now
		r.AvailableSeats += b.SeatsBooked
		booking, ride, notification = b, r, n
		return nil
	})
	observability.TransactionDuration.WithLabelValues("cancel_booking").Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, s.failed(observability.CancellationsTotal, "cancel booking", err)
	}
	s.rides.InvalidateCache(ctx, ride.ID)

	observability.CancellationsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
	observability.SeatsReleased.Add(float64(booking.SeatsBooked))
	s.logger.WithUserID(actorID).LogBookingEvent(booking.ID, ride.ID, "cancelled", booking.SeatsBooked)

	s.announce(ctx, ride, booking, notification, utils.EventBookingCancelled, "Booking cancelled")
	return booking, nil
}

// failed records the outcome and wraps unexpected errors. Errors meant for
// the caller pass through unchanged.
func (s *bookingService) failed(counter *prometheus.CounterVec, op string, err error) error {
	if IsClientError(err) {
		counter.WithLabelValues(observability.OutcomeRejected).Inc()
		return err
	}
	counter.WithLabelValues(observability.OutcomeError).Inc()
	s.logger.WithError(err).Errorf("Failed to %s", op)
	return fmt.Errorf("failed to %s: %w", op, err)
}

// announce runs after commit: the ride room sees the new seat count, the
// owner gets the notification live and on their devices.
func (s *bookingService) announce(ctx context.Context, ride *models.Ride, booking *models.Booking, n *models.Notification, eventType, title string) {
	if s.dispatcher == nil {
		return
	}

	s.dispatcher.Broadcast(ctx, websocket.RideRoom(ride.ID.Hex()), utils.EventRideUpdated, map[string]interface{}{
		"ride_id":         ride.ID.Hex(),
		"available_seats": ride.AvailableSeats,
		"status":          ride.Status,
	})
	s.dispatcher.Broadcast(ctx, websocket.UserRoom(booking.RiderID), eventType, booking)
	s.dispatcher.Notify(ctx, n, title)
	s.dispatcher.Publish(ctx, eventType, ride.ID.Hex(), map[string]interface{}{
		"booking_id":      booking.ID.Hex(),
		"ride_id":         ride.ID.Hex(),
		"rider_id":        booking.RiderID,
		"owner_id":        ride.OwnerID,
		"seats":           booking.SeatsBooked,
		"available_seats": ride.AvailableSeats,
	})
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID primitive.ObjectID, viewerID string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.RiderID == viewerID {
		return booking, nil
	}

	ride, err := s.rides.GetByID(ctx, booking.RideID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrBookingAccessDenied
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	if ride.OwnerID != viewerID {
		return nil, ErrBookingAccessDenied
	}

	return booking, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, riderID string, status models.BookingStatus, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	bookings, total, err := s.bookings.GetByRiderID(ctx, riderID, status, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}

func (s *bookingService) ListRideBookings(ctx context.Context, rideID primitive.ObjectID, ownerID string) ([]*models.Booking, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	if ride.OwnerID != ownerID {
		return nil, ErrNotRideOwner
	}

	bookings, err := s.bookings.GetByRideID(ctx, rideID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list ride bookings: %w", err)
	}
	return bookings, nil
}
