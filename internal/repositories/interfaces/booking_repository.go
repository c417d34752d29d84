package interfaces

import (
	"context"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	GetByRiderID(ctx context.Context, riderID string, status models.BookingStatus, params *utils.PaginationParams) ([]*models.Booking, int64, error)
	GetByRideID(ctx context.Context, rideID primitive.ObjectID, status models.BookingStatus) ([]*models.Booking, error)
	GetActiveByRideAndRider(ctx context.Context, rideID primitive.ObjectID, riderID string) (*models.Booking, error)
	HasBooking(ctx context.Context, rideID primitive.ObjectID, riderID string) (bool, error)

	// MarkCancelled flips an active booking to cancelled, or returns
	// ErrBookingNotActive when it is not active anymore.
	MarkCancelled(ctx context.Context, id primitive.ObjectID, at time.Time) error
}
