package interfaces

import (
	"context"

	"campusrides/internal/models"
	"campusrides/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)
	GetByOwnerID(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	Search(ctx context.Context, filter *models.RideSearchFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RideStatus) error

	// ReserveSeats decrements available seats by n only if at least n are
	// left, otherwise it returns ErrInsufficientSeats.
	ReserveSeats(ctx context.Context, id primitive.ObjectID, n int) error
	// ReleaseSeats increments available seats by n only if the result stays
	// within capacity, otherwise it returns ErrSeatOverflow.
	ReleaseSeats(ctx context.Context, id primitive.ObjectID, n int) error

	// InvalidateCache drops the cached copy of the ride. Writers call it
	// again after commit, since a reader may have cached the old document
	// while the transaction was open.
	InvalidateCache(ctx context.Context, id primitive.ObjectID)
}
