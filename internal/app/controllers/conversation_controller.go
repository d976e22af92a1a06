package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/app/models/dto"
	"github.com/advoga/advoga/internal/app/services"
	"github.com/advoga/advoga/internal/middleware"
)

// ConversationController handles conversation lifecycle endpoints
type ConversationController struct {
	conversationService services.ConversationService
}

// NewConversationController creates a new ConversationController
func NewConversationController(conversationService services.ConversationService) *ConversationController {
	return &ConversationController{conversationService: conversationService}
}

// Create opens a new conversation anchored to a client
func (c *ConversationController) Create(ctx *gin.Context) {
	var req dto.CreateConversationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	tenantID := ctx.GetString(middleware.CtxTenantID)
	conv, err := c.conversationService.Create(ctx.Request.Context(), tenantID, actorFromContext(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.ToConversationResponse(conv))
}

// Get returns one conversation with its participants
func (c *ConversationController) Get(ctx *gin.Context) {
	conv, err := c.conversationService.GetByID(ctx.Request.Context(), ctx.Param("id"), actorFromContext(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToConversationResponse(conv))
}

// List returns the caller's conversations
func (c *ConversationController) List(ctx *gin.Context) {
	var req dto.ListConversationsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	tenantID := ctx.GetString(middleware.CtxTenantID)
	conversations, err := c.conversationService.List(ctx.Request.Context(), tenantID, actorFromContext(ctx), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToConversationListResponse(conversations))
}

// UpdateStatus archives, closes or reactivates a conversation
func (c *ConversationController) UpdateStatus(ctx *gin.Context) {
	var req dto.UpdateConversationStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	err := c.conversationService.UpdateStatus(ctx.Request.Context(), ctx.Param("id"),
		actorFromContext(ctx), models.ConversationStatus(req.Status))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Conversation status updated"})
}

// UpdatePriority changes a conversation's priority
func (c *ConversationController) UpdatePriority(ctx *gin.Context) {
	var req dto.UpdateConversationPriorityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	err := c.conversationService.UpdatePriority(ctx.Request.Context(), ctx.Param("id"),
		actorFromContext(ctx), models.ConversationPriority(req.Priority))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Conversation priority updated"})
}
