package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/repositories/interfaces"
	"campusrides/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection(bookingsCollection),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()
	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.BookedAt.IsZero() {
		booking.BookedAt = now
	}

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return wrapError("create booking", err)
	}

	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		return nil, wrapError("get booking", err)
	}
	return &booking, nil
}

func (r *bookingRepository) GetByRiderID(ctx context.Context, riderID string, status models.BookingStatus, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	filter := bson.M{"rider_id": riderID}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings, err := decodeAll[models.Booking](ctx, cursor, "booking")
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *bookingRepository) GetByRideID(ctx context.Context, rideID primitive.ObjectID, status models.BookingStatus) ([]*models.Booking, error) {
	filter := bson.M{"ride_id": rideID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "booked_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find ride bookings: %w", err)
	}

	return decodeAll[models.Booking](ctx, cursor, "booking")
}

func (r *bookingRepository) GetActiveByRideAndRider(ctx context.Context, rideID primitive.ObjectID, riderID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{
		"ride_id":  rideID,
		"rider_id": riderID,
		"status":   models.BookingStatusActive,
	}).Decode(&booking)
	if err != nil {
		return nil, wrapError("get active booking", err)
	}
	return &booking, nil
}

// HasBooking reports whether the rider ever booked the ride, cancelled or
// not. It gates who may open a chat with the ride owner.
func (r *bookingRepository) HasBooking(ctx context.Context, rideID primitive.ObjectID, riderID string) (bool, error) {
	err := r.collection.FindOne(ctx,
		bson.M{"ride_id": rideID, "rider_id": riderID},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check booking: %w", err)
	}
	return true, nil
}

func (r *bookingRepository) MarkCancelled(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.BookingStatusActive},
		bson.M{"$set": bson.M{
			"status":       models.BookingStatusCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		}},
	)
	if err != nil {
		return wrapError("cancel booking", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrBookingNotActive
	}
	return nil
}
