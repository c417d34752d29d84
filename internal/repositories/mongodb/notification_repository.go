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

type notificationRepository struct {
	collection *mongo.Collection
	cache      interfaces.Cache
}

func NewNotificationRepository(db *mongo.Database, cache interfaces.Cache) interfaces.NotificationRepository {
	return &notificationRepository{
		collection: db.Collection(notificationsCollection),
		cache:      cache,
	}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.Read = false
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		return wrapError("create notification", err)
	}

	r.invalidateUnreadCount(ctx, notification.UserID)
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var notification models.Notification
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notification); err != nil {
		return nil, wrapError("get notification", err)
	}
	return &notification, nil
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID string, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find notifications: %w", err)
	}

	notifications, err := decodeAll[models.Notification](ctx, cursor, "notification")
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	key := utils.CacheUnreadPrefix + userID
	if r.cache != nil && !inTransaction(ctx) {
		var count int64
		if err := r.cache.Get(ctx, key, &count); err == nil {
			return count, nil
		}
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	if r.cache != nil && !inTransaction(ctx) {
		_ = r.cache.Set(ctx, key, count, time.Minute)
	}
	return count, nil
}

// MarkAsRead only matches notifications owned by userID, so a foreign id is
// reported as not found.
func (r *notificationRepository) MarkAsRead(ctx context.Context, id primitive.ObjectID, userID string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read": true, "read_at": time.Now().UTC()}},
	)
	if err != nil {
		return wrapError("mark notification as read", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to mark notification as read: %w", interfaces.ErrNotFound)
	}

	r.invalidateUnreadCount(ctx, userID)
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, wrapError("mark notifications as read", err)
	}

	r.invalidateUnreadCount(ctx, userID)
	return result.ModifiedCount, nil
}

func (r *notificationRepository) invalidateUnreadCount(ctx context.Context, userID string) {
	if r.cache != nil {
		_ = r.cache.Delete(ctx, utils.CacheUnreadPrefix+userID)
	}
}
