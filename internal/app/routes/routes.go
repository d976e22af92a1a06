package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/advoga/advoga/internal/app/controllers"
	"github.com/advoga/advoga/internal/middleware"
	"github.com/advoga/advoga/internal/pkg/websocket"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	conversationController *controllers.ConversationController,
	chatController *controllers.ChatController,
	notificationController *controllers.NotificationController,
	webhookController *controllers.WebhookController,
	wsHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// --- Public auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.POST("/client/login", authController.ClientLogin)
		auth.POST("/refresh", authController.Refresh)
	}

	// --- WhatsApp webhook, authenticated by the provider's signature ---
	webhook := v1.Group("/webhooks/whatsapp")
	{
		webhook.GET("", webhookController.Verify)
		webhook.POST("", webhookController.Receive)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.POST("/auth/push-token", authController.RegisterPushToken)
	authenticated.POST("/auth/register", authMiddleware.StaffOnly(), authController.Register)

	conversations := authenticated.Group("/conversations")
	{
		conversations.GET("", conversationController.List)
		conversations.GET("/:id", conversationController.Get)
		conversations.GET("/:id/ws", wsHandler.HandleConnection)

		conversations.GET("/:id/messages", chatController.GetMessages)
		conversations.POST("/:id/messages", chatController.SendMessage)
		conversations.POST("/:id/typing", chatController.Typing)
		conversations.POST("/:id/read", chatController.MarkRead)
		conversations.PUT("/:id/messages/:messageId", chatController.EditMessage)
		conversations.DELETE("/:id/messages/:messageId", chatController.DeleteMessage)
	}

	staff := conversations.Group("")
	staff.Use(authMiddleware.StaffOnly())
	{
		staff.POST("", conversationController.Create)
		staff.PUT("/:id/status", conversationController.UpdateStatus)
		staff.PUT("/:id/priority", conversationController.UpdatePriority)
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", notificationController.ListUnread)
		notifications.POST("/:id/read", notificationController.MarkRead)
		notifications.POST("/read-all", notificationController.MarkAllRead)
		notifications.GET("/preferences", notificationController.GetPreferences)
		notifications.PUT("/preferences", notificationController.UpdatePreferences)
	}
}
