package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/advoga/advoga/internal/app/models/dto"
	"github.com/advoga/advoga/internal/app/services"
	"github.com/advoga/advoga/internal/middleware"
)

// NotificationController handles notification and preference endpoints
type NotificationController struct {
	notificationService services.NotificationService
	preferenceService   services.PreferenceService
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService services.NotificationService, preferenceService services.PreferenceService) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		preferenceService:   preferenceService,
	}
}

// ListUnread returns the caller's unread notifications with a total count
func (c *NotificationController) ListUnread(ctx *gin.Context) {
	limit := 50
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	actor := actorFromContext(ctx)
	notifications, count, err := c.notificationService.ListUnread(ctx.Request.Context(), actor.ID, actor.IsClient, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.NotificationListResponse{
		Notifications: make([]dto.NotificationResponse, 0, len(notifications)),
		UnreadCount:   count,
	}
	for _, n := range notifications {
		resp.Notifications = append(resp.Notifications, dto.ToNotificationResponse(n))
	}
	ctx.JSON(http.StatusOK, resp)
}

// MarkRead marks one of the caller's notifications as read
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	actor := actorFromContext(ctx)
	if err := c.notificationService.MarkRead(ctx.Request.Context(), ctx.Param("id"), actor.ID, actor.IsClient); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Notification marked as read"})
}

// MarkAllRead marks all the caller's unread notifications as read,
// optionally scoped to one conversation via ?conversationId=
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	actor := actorFromContext(ctx)
	updated, err := c.notificationService.MarkAllRead(ctx.Request.Context(), actor.ID, actor.IsClient, ctx.Query("conversationId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.MarkAllReadResponse{Updated: updated})
}

// GetPreferences returns the caller's effective notification preferences
func (c *NotificationController) GetPreferences(ctx *gin.Context) {
	actor := actorFromContext(ctx)
	pref, err := c.preferenceService.GetEffective(ctx.Request.Context(), actor.ID, actor.IsClient)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToPreferenceResponse(pref))
}

// UpdatePreferences partially updates the caller's notification preferences
func (c *NotificationController) UpdatePreferences(ctx *gin.Context) {
	var req dto.UpdatePreferenceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	actor := actorFromContext(ctx)
	pref, err := c.preferenceService.Update(ctx.Request.Context(), actor.ID, actor.IsClient, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ToPreferenceResponse(pref))
}
