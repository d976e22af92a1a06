package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ParticipantChecker answers whether an actor belongs to a conversation.
// Implemented by the participant repository.
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, conversationID, actorID string, isClient bool) (bool, error)
}

// Handler upgrades HTTP connections for realtime chat.
type Handler struct {
	hub          *Hub
	participants ParticipantChecker
	logger       zerolog.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, participants ParticipantChecker, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:          hub,
		participants: participants,
		logger:       logger,
	}
}

// HandleConnection godoc
// @Summary Establish a WebSocket connection for realtime chat
// @Description Upgrades the HTTP connection for realtime messages, typing indicators and presence on a conversation
// @Tags chat, websocket
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Actor is not a participant in the conversation"
// @Router /conversations/{id}/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	conversationID := c.Param("id")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	actorID := c.GetString("actorID")
	if actorID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Actor identity not found in context"})
		return
	}
	isClient := c.GetBool("isClient")
	actorType := c.GetString("actorType")
	actorName := c.GetString("actorName")

	isParticipant, err := h.participants.IsParticipant(c, conversationID, actorID, isClient)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("conversationId", conversationID).
			Str("actorId", actorID).
			Msg("Failed to check conversation membership")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check participant status"})
		return
	}
	if !isParticipant {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant in this conversation"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("conversationId", conversationID).
			Msg("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:            h.hub,
		conn:           conn,
		send:           make(chan []byte, 256),
		actorID:        actorID,
		actorType:      actorType,
		actorName:      actorName,
		isClient:       isClient,
		conversationID: conversationID,
	}
	client.logger = h.logger.With().Str("conversationId", conversationID).Logger()

	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
