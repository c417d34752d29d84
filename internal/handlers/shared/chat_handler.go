package handlers

import (
	"strconv"

	"campusrides/internal/middleware"
	"campusrides/internal/services"
	"campusrides/internal/utils"
	"campusrides/internal/validators"
	"campusrides/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatHandler struct {
	chatService services.ChatService
	logger      *logger.Logger
}

func NewChatHandler(chatService services.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      orNop(log),
	}
}

// OpenChat returns the chat with another participant of a ride, creating
// it on first contact.
func (h *ChatHandler) OpenChat(c *gin.Context) {
	var req validators.CreateChatRequest
	if !bindJSON(c, &req) {
		return
	}

	rideID, _ := primitive.ObjectIDFromHex(req.RideID)
	chat, created, err := h.chatService.GetOrCreateChat(c.Request.Context(), middleware.GetUserID(c), req.ParticipantID, rideID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	if created {
		utils.CreatedResponse(c, "Chat created successfully", chat)
		return
	}
	utils.SuccessResponse(c, "Chat retrieved successfully", chat)
}

// ListChats lists the caller's chats, most recent first
func (h *ChatHandler) ListChats(c *gin.Context) {
	params := utils.GetPaginationParams(c, "updated_at", "updated_at")
	chats, total, err := h.chatService.ListChats(c.Request.Context(), middleware.GetUserID(c), params)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Chats retrieved successfully", chats, params, total)
}

// GetChat retrieves a chat for one of its participants
func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, ok := objectIDParam(c, "id", "chat")
	if !ok {
		return
	}

	chat, err := h.chatService.GetChat(c.Request.Context(), chatID, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Chat retrieved successfully", chat)
}

// ListMessages returns messages after the given sequence number in order
func (h *ChatHandler) ListMessages(c *gin.Context) {
	chatID, ok := objectIDParam(c, "id", "chat")
	if !ok {
		return
	}

	afterSeq, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil || afterSeq < 0 {
		utils.BadRequestResponse(c, "Invalid after parameter")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(utils.DefaultMessagePageSize)))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid limit parameter")
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), chatID, middleware.GetUserID(c), afterSeq, limit)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Messages retrieved successfully", messages, &utils.Meta{Count: len(messages)})
}

// SendMessage posts a message to the chat
func (h *ChatHandler) SendMessage(c *gin.Context) {
	chatID, ok := objectIDParam(c, "id", "chat")
	if !ok {
		return
	}

	var req validators.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), chatID, middleware.GetUserID(c), req.Text)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Message sent successfully", message)
}

// MarkRead resets the caller's unread counter
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, ok := objectIDParam(c, "id", "chat")
	if !ok {
		return
	}

	if err := h.chatService.MarkChatRead(c.Request.Context(), chatID, middleware.GetUserID(c)); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.NoContentResponse(c)
}
