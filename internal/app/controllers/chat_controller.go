package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/advoga/advoga/internal/app/models/dto"
	"github.com/advoga/advoga/internal/app/services"
	"github.com/advoga/advoga/internal/middleware"
)

// ChatController handles message endpoints inside a conversation
type ChatController struct {
	chatService services.ChatService
}

// NewChatController creates a new ChatController
func NewChatController(chatService services.ChatService) *ChatController {
	return &ChatController{chatService: chatService}
}

// SendMessage stores and broadcasts a new message
func (c *ChatController) SendMessage(ctx *gin.Context) {
	var req dto.SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	msg, err := c.chatService.SendMessage(ctx.Request.Context(), ctx.Param("id"), actorFromContext(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.ToMessageResponse(msg))
}

// GetMessages returns a page of the conversation's messages
func (c *ChatController) GetMessages(ctx *gin.Context) {
	var req dto.GetMessagesRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	messages, err := c.chatService.GetMessages(ctx.Request.Context(), ctx.Param("id"), actorFromContext(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToMessageListResponse(messages))
}

// EditMessage updates the caller's own message content
func (c *ChatController) EditMessage(ctx *gin.Context) {
	var req dto.EditMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Content is required")))
		return
	}

	msg, err := c.chatService.EditMessage(ctx.Request.Context(), ctx.Param("messageId"), actorFromContext(ctx), req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToMessageResponse(msg))
}

// DeleteMessage soft-deletes the caller's own message
func (c *ChatController) DeleteMessage(ctx *gin.Context) {
	if err := c.chatService.DeleteMessage(ctx.Request.Context(), ctx.Param("messageId"), actorFromContext(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Message deleted"})
}

// MarkRead moves the caller's read marker in a conversation
func (c *ChatController) MarkRead(ctx *gin.Context) {
	if err := c.chatService.MarkConversationRead(ctx.Request.Context(), ctx.Param("id"), actorFromContext(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Conversation marked as read"})
}

// Typing broadcasts a typing indicator over the realtime channel
func (c *ChatController) Typing(ctx *gin.Context) {
	var req struct {
		IsTyping bool `json:"isTyping"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	if err := c.chatService.Typing(ctx.Request.Context(), ctx.Param("id"), actorFromContext(ctx), req.IsTyping); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Typing indicator sent"})
}
