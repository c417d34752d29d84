package mongodb

import (
	"context"
	"errors"
	"fmt"

	"campusrides/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ridesCollection         = "rides"
	bookingsCollection      = "bookings"
	carsCollection          = "cars"
	usersCollection         = "users"
	chatsCollection         = "chats"
	messagesCollection      = "messages"
	notificationsCollection = "notifications"
)

// inTransaction reports whether ctx carries a session. Reads inside a
// transaction must bypass the cache so they observe the snapshot.
func inTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

// wrapError maps driver errors to repository sentinels and adds the
// operation as context.
func wrapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("failed to %s: %w", op, interfaces.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("failed to %s: %w", op, interfaces.ErrDuplicate)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor, what string) ([]*T, error) {
	defer cursor.Close(ctx)

	var items []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", what, err)
		}
		items = append(items, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error while reading %s: %w", what, err)
	}
	return items, nil
}
