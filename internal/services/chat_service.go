package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"campusrides/internal/models"
	"campusrides/internal/observability"
	"campusrides/internal/repositories/interfaces"
	"campusrides/internal/utils"
	"campusrides/pkg/email"
	"campusrides/pkg/logger"
	"campusrides/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatService interface {
	// GetOrCreateChat returns the one chat between actorID and otherID,
	// creating it on first contact. The pair must be the owner of rideID
	// and a rider who booked it.
	GetOrCreateChat(ctx context.Context, actorID, otherID string, rideID primitive.ObjectID) (*models.Chat, bool, error)
	SendMessage(ctx context.Context, chatID primitive.ObjectID, senderID, text string) (*models.Message, error)
	ListChats(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Chat, int64, error)
	GetChat(ctx context.Context, chatID primitive.ObjectID, viewerID string) (*models.Chat, error)
	ListMessages(ctx context.Context, chatID primitive.ObjectID, viewerID string, afterSeq int64, limit int) ([]*models.Message, error)
	MarkChatRead(ctx context.Context, chatID primitive.ObjectID, userID string) error
}

type chatService struct {
	tx            interfaces.Transactor
	chats         interfaces.ChatRepository
	messages      interfaces.MessageRepository
	rides         interfaces.RideRepository
	bookings      interfaces.BookingRepository
	users         interfaces.UserRepository
	notifications interfaces.NotificationRepository
	dispatcher    *Dispatcher
	email         EmailService
	logger        *logger.Logger
}

type ChatServiceDeps struct {
	Tx            interfaces.Transactor
	Chats         interfaces.ChatRepository
	Messages      interfaces.MessageRepository
	Rides         interfaces.RideRepository
	Bookings      interfaces.BookingRepository
	Users         interfaces.UserRepository
	Notifications interfaces.NotificationRepository
	Dispatcher    *Dispatcher
	Email         EmailService
	Logger        *logger.Logger
}

func NewChatService(deps ChatServiceDeps) ChatService {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	return &chatService{
		tx:            deps.Tx,
		chats:         deps.Chats,
		messages:      deps.Messages,
		rides:         deps.Rides,
		bookings:      deps.Bookings,
		users:         deps.Users,
		notifications: deps.Notifications,
		dispatcher:    deps.Dispatcher,
		email:         deps.Email,
		logger:        deps.Logger.WithField("service", "chat"),
	}
}

func (s *chatService) GetOrCreateChat(ctx context.Context, actorID, otherID string, rideID primitive.ObjectID) (*models.Chat, bool, error) {
	if actorID == otherID {
		return nil, false, ErrChatWithSelf
	}
	if err := s.checkRideRelation(ctx, actorID, otherID, rideID); err != nil {
		return nil, false, err
	}

	chat, created, err := s.chats.FindOrCreateByPair(ctx, &models.Chat{
		PairKey:      models.ChatPairKey(actorID, otherID),
		Participants: models.SortedParticipants(actorID, otherID),
		RideID:       &rideID,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create chat: %w", err)
	}
	if !chat.HasParticipant(actorID) || !chat.HasParticipant(otherID) {
		s.logger.WithUserID(actorID).WithChatID(chat.ID).Error("Pair key resolved to a chat of another pair")
		return nil, false, ErrNotChatParticipant
	}

	if created {
		observability.ChatsCreated.Inc()
		s.logger.WithUserID(actorID).LogChatEvent(chat.ID, "created", map[string]interface{}{
			"ride_id": rideID.Hex(),
		})
		if s.dispatcher != nil {
			s.dispatcher.Broadcast(ctx, websocket.UserRoom(otherID), utils.EventChatCreated, chat)
		}
	}

	return chat.ForViewer(actorID), created, nil
}

// checkRideRelation allows a chat only between the owner of the ride and a
// user holding a booking on it, in either direction.
func (s *chatService) checkRideRelation(ctx context.Context, actorID, otherID string, rideID primitive.ObjectID) error {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrRideNotFound
		}
		return fmt.Errorf("failed to get ride: %w", err)
	}

	var rider string
	switch ride.OwnerID {
	case actorID:
		rider = otherID
	case otherID:
		rider = actorID
	default:
		return ErrChatNotAllowed
	}

	booked, err := s.bookings.HasBooking(ctx, rideID, rider)
	if err != nil {
		return fmt.Errorf("failed to check booking: %w", err)
	}
	if !booked {
		return ErrChatNotAllowed
	}
	return nil
}

func (s *chatService) SendMessage(ctx context.Context, chatID primitive.ObjectID, senderID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	chat, err := s.participantChat(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}
	recipientID := chat.OtherParticipant(senderID)
	senderName := s.displayName(ctx, senderID)
	preview := models.Preview(text, utils.MessagePreviewLength)

	var (
		message      *models.Message
		notification *models.Notification
	)
	start := time.Now()
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		seq, err := s.chats.AppendMessage(ctx, chatID, recipientID, preview, now)
		if err != nil {
			return err
		}

		m := &models.Message{
			ChatID:    chatID,
			SenderID:  senderID,
			Text:      text,
			Seq:       seq,
			CreatedAt: now,
		}
		if err := s.messages.Create(ctx, m); err != nil {
			return err
		}

		n := &models.Notification{
			UserID:    recipientID,
			Type:      models.NotificationTypeChat,
			Message:   fmt.Sprintf("New message from %s: %s", senderName, preview),
			ChatID:    &chatID,
			RideID:    chat.RideID,
			CreatedAt: now,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			return err
		}

		message, notification = m, n
		return nil
	})
	observability.TransactionDuration.WithLabelValues("send_message").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		s.logger.WithChatID(chatID).WithError(err).Error("Failed to send message")
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	observability.MessagesSent.Inc()

	if s.dispatcher != nil {
		s.dispatcher.Broadcast(ctx, websocket.ChatRoom(chatID.Hex()), utils.EventMessageCreated, message)
		s.dispatcher.Broadcast(ctx, websocket.UserRoom(recipientID), utils.EventChatUpdated, map[string]interface{}{
			"chat_id":      chatID.Hex(),
			"last_message": preview,
			"message_seq":  message.Seq,
		})
		s.dispatcher.Notify(ctx, notification, "New message from "+senderName)
		if s.email != nil {
			s.dispatcher.goDetached(ctx, func(ctx context.Context) {
				s.emailRecipient(ctx, recipientID, senderName, preview)
			})
		}
	}

	return message, nil
}

func (s *chatService) emailRecipient(ctx context.Context, recipientID, senderName, preview string) {
	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil || recipient.Email == "" {
		return
	}

	subject := "New message from " + senderName
	body := fmt.Sprintf("<p>%s sent you a message:</p><blockquote>%s</blockquote>",
		html.EscapeString(senderName), html.EscapeString(preview))
	if _, err := s.email.Send(ctx, &email.Message{
		To:      []string{recipient.Email},
		Subject: subject,
		HTML:    body,
	}); err != nil {
		s.logger.WithUserID(recipientID).WithError(err).Warn("Failed to email message notice")
	}
}

func (s *chatService) ListChats(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Chat, int64, error) {
	chats, total, err := s.chats.GetByParticipant(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list chats: %w", err)
	}
	for _, chat := range chats {
		chat.ForViewer(userID)
	}
	return chats, total, nil
}

func (s *chatService) GetChat(ctx context.Context, chatID primitive.ObjectID, viewerID string) (*models.Chat, error) {
	chat, err := s.participantChat(ctx, chatID, viewerID)
	if err != nil {
		return nil, err
	}
	return chat.ForViewer(viewerID), nil
}

func (s *chatService) ListMessages(ctx context.Context, chatID primitive.ObjectID, viewerID string, afterSeq int64, limit int) ([]*models.Message, error) {
	if _, err := s.participantChat(ctx, chatID, viewerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = utils.DefaultMessagePageSize
	}
	if limit > utils.MaxMessagePageSize {
		limit = utils.MaxMessagePageSize
	}
	if afterSeq < 0 {
		afterSeq = 0
	}

	messages, err := s.messages.GetByChatID(ctx, chatID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (s *chatService) MarkChatRead(ctx context.Context, chatID primitive.ObjectID, userID string) error {
	if _, err := s.participantChat(ctx, chatID, userID); err != nil {
		return err
	}
	if err := s.chats.ResetUnread(ctx, chatID, userID); err != nil {
		return fmt.Errorf("failed to mark chat read: %w", err)
	}
	return nil
}

func (s *chatService) participantChat(ctx context.Context, chatID primitive.ObjectID, userID string) (*models.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrNotChatParticipant
	}
	return chat, nil
}

func (s *chatService) displayName(ctx context.Context, userID string) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return (&models.User{}).DisplayName()
	}
	return user.DisplayName()
}
