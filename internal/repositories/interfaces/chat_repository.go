package interfaces

import (
	"context"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatRepository interface {
	// FindOrCreateByPair returns the chat stored under chat.PairKey, inserting
	// chat when none exists. created reports whether this call inserted it.
	FindOrCreateByPair(ctx context.Context, chat *models.Chat) (result *models.Chat, created bool, err error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	GetByParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Chat, int64, error)

	// AppendMessage advances the chat's message sequence, stores the preview
	// and bumps the recipient's unread counter. It returns the new sequence.
	AppendMessage(ctx context.Context, chatID primitive.ObjectID, recipientID, preview string, at time.Time) (int64, error)
	ResetUnread(ctx context.Context, chatID primitive.ObjectID, userID string) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	// GetByChatID returns up to limit messages with seq > afterSeq in
	// ascending order.
	GetByChatID(ctx context.Context, chatID primitive.ObjectID, afterSeq int64, limit int) ([]*models.Message, error)
}
