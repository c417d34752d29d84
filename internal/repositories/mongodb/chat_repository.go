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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type chatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *mongo.Database) interfaces.ChatRepository {
	return &chatRepository{
		collection: db.Collection(chatsCollection),
	}
}

// FindOrCreateByPair upserts on the unique pair key, so two callers racing
// for the same pair end up with the same document. When the upsert itself
// loses on the unique index the winner is read back.
func (r *chatRepository) FindOrCreateByPair(ctx context.Context, chat *models.Chat) (*models.Chat, bool, error) {
	now := time.Now().UTC()
	candidateID := primitive.NewObjectID()

	insert := bson.M{
		"_id":           candidateID,
		"participants":  chat.Participants,
		"last_message":  "",
		"message_seq":   int64(0),
		"unread_counts": bson.M{},
		"created_at":    now,
		"updated_at":    now,
	}
	if chat.RideID != nil {
		insert["ride_id"] = *chat.RideID
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result models.Chat
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"pair_key": chat.PairKey},
		bson.M{"$setOnInsert": insert},
		opts,
	).Decode(&result)
	if mongo.IsDuplicateKeyError(err) {
		if err := r.collection.FindOne(ctx, bson.M{"pair_key": chat.PairKey}).Decode(&result); err != nil {
			return nil, false, wrapError("read existing chat", err)
		}
		return &result, false, nil
	}
	if err != nil {
		return nil, false, wrapError("find or create chat", err)
	}

	return &result, result.ID == candidateID, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&chat); err != nil {
		return nil, wrapError("get chat", err)
	}
	return &chat, nil
}

func (r *chatRepository) GetByParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Chat, int64, error) {
	filter := bson.M{"participants": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count chats: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find chats: %w", err)
	}

	chats, err := decodeAll[models.Chat](ctx, cursor, "chat")
	if err != nil {
		return nil, 0, err
	}
	return chats, total, nil
}

func (r *chatRepository) AppendMessage(ctx context.Context, chatID primitive.ObjectID, recipientID, preview string, at time.Time) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"message_seq": 1})

	var updated struct {
		MessageSeq int64 `bson:"message_seq"`
	}
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": chatID},
		bson.M{
			"$inc": bson.M{
				"message_seq":                 int64(1),
				"unread_counts." + recipientID: 1,
			},
			"$set": bson.M{
				"last_message":    preview,
				"last_message_at": at,
				"updated_at":      at,
			},
		},
		opts,
	).Decode(&updated)
	if err != nil {
		return 0, wrapError("append message", err)
	}

	return updated.MessageSeq, nil
}

func (r *chatRepository) ResetUnread(ctx context.Context, chatID primitive.ObjectID, userID string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"unread_counts." + userID: 0}},
	)
	if err != nil {
		return wrapError("reset unread", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to reset unread: %w", interfaces.ErrNotFound)
	}
	return nil
}

type messageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) interfaces.MessageRepository {
	return &messageRepository{
		collection: db.Collection(messagesCollection),
	}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, message); err != nil {
		return wrapError("create message", err)
	}
	return nil
}

func (r *messageRepository) GetByChatID(ctx context.Context, chatID primitive.ObjectID, afterSeq int64, limit int) ([]*models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{
		"chat_id": chatID,
		"seq":     bson.M{"$gt": afterSeq},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}

	messages, err := decodeAll[models.Message](ctx, cursor, "message")
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	return messages, nil
}

