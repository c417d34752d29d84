package services

import (
	"context"
	"errors"
	"fmt"

	"campusrides/internal/repositories/interfaces"
	"campusrides/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomAuthorizer decides which live rooms a user may join: their own user
// room, any existing ride, and chats they take part in.
type RoomAuthorizer struct {
	rides interfaces.RideRepository
	chats interfaces.ChatRepository
}

func NewRoomAuthorizer(rides interfaces.RideRepository, chats interfaces.ChatRepository) *RoomAuthorizer {
	return &RoomAuthorizer{rides: rides, chats: chats}
}

func (a *RoomAuthorizer) AuthorizeRoom(ctx context.Context, userID, room string) error {
	kind, id, ok := websocket.ParseRoom(room)
	if !ok {
		return ErrRoomNotAllowed
	}

	switch kind {
	case "user":
		if id != userID {
			return ErrRoomNotAllowed
		}
		return nil

	case "ride":
		rideID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return ErrRoomNotAllowed
		}
		if _, err := a.rides.GetByID(ctx, rideID); err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrRideNotFound
			}
			return fmt.Errorf("failed to get ride: %w", err)
		}
		return nil

	case "chat":
		chatID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return ErrRoomNotAllowed
		}
		chat, err := a.chats.GetByID(ctx, chatID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrChatNotFound
			}
			return fmt.Errorf("failed to get chat: %w", err)
		}
		if !chat.HasParticipant(userID) {
			return ErrNotChatParticipant
		}
		return nil
	}

	return ErrRoomNotAllowed
}
