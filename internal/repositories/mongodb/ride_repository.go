package mongodb

import (
	"context"
	"fmt"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/repositories/interfaces"
	"campusrides/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type rideRepository struct {
	collection *mongo.Collection
	cache      interfaces.Cache
	cacheTTL   time.Duration
}

func NewRideRepository(db *mongo.Database, cache interfaces.Cache, cacheTTL time.Duration) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection(ridesCollection),
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	now := time.Now().UTC()
	ride.ID = primitive.NewObjectID()
	ride.CreatedAt = now
	ride.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, ride); err != nil {
		return wrapError("create ride", err)
	}

	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	tx := inTransaction(ctx)
	if !tx {
		if ride := r.getRideFromCache(ctx, id); ride != nil {
			return ride, nil
		}
	}

	var ride models.Ride
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride); err != nil {
		return nil, wrapError("get ride", err)
	}

	if !tx {
		r.cacheRide(ctx, &ride)
	}

	return &ride, nil
}

func (r *rideRepository) GetByOwnerID(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return r.findRidesWithFilter(ctx, bson.M{"owner_id": ownerID}, params)
}

func (r *rideRepository) Search(ctx context.Context, filter *models.RideSearchFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	return r.findRidesWithFilter(ctx, buildSearchFilter(filter), params)
}

func buildSearchFilter(filter *models.RideSearchFilter) bson.M {
	query := bson.M{
		"pickup_location":      filter.PickupLocation,
		"destination_location": filter.DestinationLocation,
	}

	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	if filter.MaxPrice != nil {
		query["price_per_seat"] = bson.M{"$lte": *filter.MaxPrice}
	}
	if filter.MinSeats > 0 {
		query["available_seats"] = bson.M{"$gte": filter.MinSeats}
	}
	if filter.AirConditioning {
		query["air_conditioning"] = true
	}
	if filter.WifiAvailable {
		query["wifi_available"] = true
	}
	if filter.Date != nil {
		day := filter.Date.UTC().Truncate(24 * time.Hour)
		query["start_time"] = bson.M{"$gte": day, "$lt": day.Add(24 * time.Hour)}
	}

	return query
}

func (r *rideRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RideStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return wrapError("update ride status", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update ride status: %w", interfaces.ErrNotFound)
	}

	r.InvalidateCache(ctx, id)
	return nil
}

func (r *rideRepository) ReserveSeats(ctx context.Context, id primitive.ObjectID, n int) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "available_seats": bson.M{"$gte": n}},
		bson.M{
			"$inc": bson.M{"available_seats": -n},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return wrapError("reserve seats", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrInsufficientSeats
	}

	r.InvalidateCache(ctx, id)
	return nil
}

func (r *rideRepository) ReleaseSeats(ctx context.Context, id primitive.ObjectID, n int) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":   id,
			"$expr": bson.M{"$lte": bson.A{bson.M{"$add": bson.A{"$available_seats", n}}, "$capacity"}},
		},
		bson.M{
			"$inc": bson.M{"available_seats": n},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return wrapError("release seats", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrSeatOverflow
	}

	r.InvalidateCache(ctx, id)
	return nil
}

func (r *rideRepository) findRidesWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find rides: %w", err)
	}

	rides, err := decodeAll[models.Ride](ctx, cursor, "ride")
	if err != nil {
		return nil, 0, err
	}

	return rides, total, nil
}

// Cache helper methods
func (r *rideRepository) cacheRide(ctx context.Context, ride *models.Ride) {
	if r.cache != nil && r.cacheTTL > 0 {
		_ = r.cache.Set(ctx, utils.CacheRidePrefix+ride.ID.Hex(), ride, r.cacheTTL)
	}
}

func (r *rideRepository) getRideFromCache(ctx context.Context, id primitive.ObjectID) *models.Ride {
	if r.cache == nil || r.cacheTTL <= 0 {
		return nil
	}

	var ride models.Ride
	if err := r.cache.Get(ctx, utils.CacheRidePrefix+id.Hex(), &ride); err != nil {
		return nil
	}
	return &ride
}

func (r *rideRepository) InvalidateCache(ctx context.Context, id primitive.ObjectID) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, utils.CacheRidePrefix+id.Hex())
	}
}
