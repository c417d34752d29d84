package mongodb

import (
	"context"
	"fmt"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/repositories/interfaces"
	"campusrides/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCacheTTL = 5 * time.Minute

type userRepository struct {
	collection *mongo.Collection
	cache      interfaces.Cache
}

func NewUserRepository(db *mongo.Database, cache interfaces.Cache) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(usersCollection),
		cache:      cache,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if user := r.getUserFromCache(ctx, id); user != nil {
		return user, nil
	}

	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, wrapError("get user", err)
	}

	r.cacheUser(ctx, &user)
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"created_at": now},
		},
		opts,
	).Decode(&user)
	if err != nil {
		return nil, wrapError("upsert user", err)
	}

	r.invalidateUserCache(ctx, id)
	return &user, nil
}

func (r *userRepository) SetProfilePicture(ctx context.Context, id, key string) error {
	_, err := r.Upsert(ctx, id, map[string]interface{}{"profile_picture": key})
	return err
}

func (r *userRepository) GetDevices(ctx context.Context, id string) ([]models.Device, error) {
	var user models.User
	err := r.collection.FindOne(ctx,
		bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"devices": 1}),
	).Decode(&user)
	if err != nil {
		return nil, wrapError("get devices", err)
	}
	return user.Devices, nil
}

// AddDevice registers a push token for the user. A token belongs to a single
// user, so it is first detached from anyone else who registered it.
func (r *userRepository) AddDevice(ctx context.Context, id string, device models.Device) error {
	device.UpdatedAt = time.Now().UTC()

	if _, err := r.collection.UpdateMany(ctx,
		bson.M{"devices.token": device.Token},
		bson.M{"$pull": bson.M{"devices": bson.M{"token": device.Token}}},
	); err != nil {
		return wrapError("detach device", err)
	}

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push":        bson.M{"devices": device},
			"$set":         bson.M{"updated_at": device.UpdatedAt},
			"$setOnInsert": bson.M{"created_at": device.UpdatedAt},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return wrapError("add device", err)
	}

	r.invalidateUserCache(ctx, id)
	return nil
}

func (r *userRepository) RemoveDevice(ctx context.Context, id, token string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"devices": bson.M{"token": token}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return wrapError("remove device", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to remove device: %w", interfaces.ErrNotFound)
	}

	r.invalidateUserCache(ctx, id)
	return nil
}

// Cache helper methods
func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache != nil {
		_ = r.cache.Set(ctx, utils.CacheUserPrefix+user.ID, user, userCacheTTL)
	}
}

func (r *userRepository) getUserFromCache(ctx context.Context, id string) *models.User {
	if r.cache == nil {
		return nil
	}

	var user models.User
	if err := r.cache.Get(ctx, utils.CacheUserPrefix+id, &user); err != nil {
		return nil
	}
	return &user
}

func (r *userRepository) invalidateUserCache(ctx context.Context, id string) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, utils.CacheUserPrefix+id)
	}
}
