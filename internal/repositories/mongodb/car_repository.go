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

type carRepository struct {
	collection *mongo.Collection
}

func NewCarRepository(db *mongo.Database) interfaces.CarRepository {
	return &carRepository{
		collection: db.Collection(carsCollection),
	}
}

func (r *carRepository) Create(ctx context.Context, car *models.Car) error {
	now := time.Now().UTC()
	car.ID = primitive.NewObjectID()
	car.CreatedAt = now
	car.UpdatedAt = now
	if car.Images == nil {
		car.Images = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, car); err != nil {
		return wrapError("create car", err)
	}
	return nil
}

func (r *carRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Car, error) {
	var car models.Car
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&car); err != nil {
		return nil, wrapError("get car", err)
	}
	return &car, nil
}

func (r *carRepository) GetByOwnerID(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Car, int64, error) {
	filter := bson.M{"owner_id": ownerID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count cars: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find cars: %w", err)
	}

	cars, err := decodeAll[models.Car](ctx, cursor, "car")
	if err != nil {
		return nil, 0, err
	}
	return cars, total, nil
}

func (r *carRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range updates {
		set[k] = v
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return wrapError("update car", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update car: %w", interfaces.ErrNotFound)
	}
	return nil
}

func (r *carRepository) AddImage(ctx context.Context, id primitive.ObjectID, key string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"images": key},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return wrapError("add car image", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to add car image: %w", interfaces.ErrNotFound)
	}
	return nil
}
