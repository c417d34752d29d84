package routes

import (
	handlers "campusrides/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupChatRoutes sets up chats between ride owners and their riders
func SetupChatRoutes(r *gin.RouterGroup, chatHandler *handlers.ChatHandler) {
	chats := r.Group("/chats")
	{
		chats.POST("", chatHandler.OpenChat)
		chats.GET("", chatHandler.ListChats)
		chats.GET("/:id", chatHandler.GetChat)
		chats.GET("/:id/messages", chatHandler.ListMessages)
		chats.POST("/:id/messages", chatHandler.SendMessage)
		chats.POST("/:id/read", chatHandler.MarkRead)
	}
}

func SetupNotificationRoutes(r *gin.RouterGroup, notificationHandler *handlers.NotificationHandler) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", notificationHandler.ListNotifications)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}
}
