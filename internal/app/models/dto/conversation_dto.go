package dto

import (
	"time"

	"github.com/advoga/advoga/internal/app/models"
)

// CreateConversationRequest represents data for opening a new conversation
type CreateConversationRequest struct {
	Title           string   `json:"title" binding:"required,max=255"`
	Type            string   `json:"type" binding:"required,oneof=general matter_specific consultation urgent whatsapp"`
	Priority        string   `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	ClientID        string   `json:"clientId" binding:"required"`
	MatterID        *string  `json:"matterId,omitempty"`
	ParticipantIDs  []string `json:"participantIds,omitempty"` // Staff user ids beyond the creator
	WhatsAppEnabled bool     `json:"whatsappEnabled"`
	WhatsAppPhone   *string  `json:"whatsappPhone,omitempty"`
}

// UpdateConversationStatusRequest archives or closes a conversation
type UpdateConversationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active archived closed"`
}

// UpdateConversationPriorityRequest changes a conversation's priority
type UpdateConversationPriorityRequest struct {
	Priority string `json:"priority" binding:"required,oneof=low normal high urgent"`
}

// ListConversationsRequest represents filter parameters for conversation lists
type ListConversationsRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=active archived closed"`
	Type     string `form:"type" binding:"omitempty,oneof=general matter_specific consultation urgent whatsapp"`
	ClientID string `form:"clientId"`
	MatterID string `form:"matterId"`
}

// ParticipantResponse represents one conversation participant
type ParticipantResponse struct {
	ID         string     `json:"id"`
	ActorID    string     `json:"actorId"`
	IsClient   bool       `json:"isClient"`
	Type       string     `json:"participantType"`
	Role       string     `json:"role"`
	JoinedAt   time.Time  `json:"joinedAt"`
	LastReadAt *time.Time `json:"lastReadAt,omitempty"`
}

// ConversationResponse represents a conversation with its participants
type ConversationResponse struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Type            string                `json:"type"`
	Status          string                `json:"status"`
	Priority        string                `json:"priority"`
	ClientID        *string               `json:"clientId,omitempty"`
	MatterID        *string               `json:"matterId,omitempty"`
	WhatsAppEnabled bool                  `json:"whatsappEnabled"`
	WhatsAppPhone   *string               `json:"whatsappPhone,omitempty"`
	LastMessageAt   *time.Time            `json:"lastMessageAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	Participants    []ParticipantResponse `json:"participants,omitempty"`
}

// ConversationListResponse represents a list of conversations
type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

// ToConversationResponse transforms a models.Conversation to ConversationResponse
func ToConversationResponse(conv *models.Conversation) ConversationResponse {
	response := ConversationResponse{
		ID:              conv.ID,
		Title:           conv.Title,
		Type:            string(conv.Type),
		Status:          string(conv.Status),
		Priority:        string(conv.Priority),
		ClientID:        conv.ClientID,
		MatterID:        conv.MatterID,
		WhatsAppEnabled: conv.WhatsAppEnabled,
		WhatsAppPhone:   conv.WhatsAppPhone,
		LastMessageAt:   conv.LastMessageAt,
		CreatedAt:       conv.CreatedAt,
	}
	for _, p := range conv.Participants {
		response.Participants = append(response.Participants, ParticipantResponse{
			ID:         p.ID,
			ActorID:    p.RecipientID(),
			IsClient:   p.IsClient(),
			Type:       string(p.Type),
			Role:       string(p.Role),
			JoinedAt:   p.JoinedAt,
			LastReadAt: p.LastReadAt,
		})
	}
	return response
}

// ToConversationListResponse transforms a slice of conversations
func ToConversationListResponse(conversations []*models.Conversation) ConversationListResponse {
	out := ConversationListResponse{Conversations: make([]ConversationResponse, 0, len(conversations))}
	for _, c := range conversations {
		out.Conversations = append(out.Conversations, ToConversationResponse(c))
	}
	return out
}
