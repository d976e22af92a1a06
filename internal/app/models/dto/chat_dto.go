package dto

import (
	"time"

	"github.com/advoga/advoga/internal/app/models"
)

// --- Request DTOs ---

// SendMessageRequest represents data for sending a new chat message
type SendMessageRequest struct {
	Type      string  `json:"type" binding:"required,oneof=text file image document"`
	Content   string  `json:"content" binding:"required_if=Type text"`
	FileURL   *string `json:"fileUrl,omitempty"`
	FileName  *string `json:"fileName,omitempty"`
	FileSize  *int64  `json:"fileSize,omitempty"`
	MimeType  *string `json:"mimeType,omitempty"`
	ReplyToID *string `json:"replyToId,omitempty"`
}

// GetMessagesRequest represents filter parameters for retrieving chat messages
type GetMessagesRequest struct {
	Before *time.Time `form:"before"`
	After  *time.Time `form:"after"`
	Type   string     `form:"type" binding:"omitempty,oneof=text file image document system whatsapp"`
	Limit  int        `form:"limit,default=50" binding:"min=1,max=100"`
}

// EditMessageRequest represents a content edit of an existing message
type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// --- Response DTOs ---

// MessageResponse represents a chat message with sender information
type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId,omitempty"`
	SenderName     string    `json:"senderName,omitempty"`
	FromClient     bool      `json:"fromClient"`
	Type           string    `json:"type"`
	Content        string    `json:"content"`
	FileURL        *string   `json:"fileUrl,omitempty"`
	FileName       *string   `json:"fileName,omitempty"`
	FileSize       *int64    `json:"fileSize,omitempty"`
	MimeType       *string   `json:"mimeType,omitempty"`
	IsEdited       bool      `json:"isEdited"`
	ReplyToID      *string   `json:"replyToId,omitempty"`
	WhatsAppStatus *string   `json:"whatsappStatus,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MessageListResponse represents a page of chat messages
type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
}

// ToMessageResponse transforms a models.Message to MessageResponse
func ToMessageResponse(message *models.Message) MessageResponse {
	response := MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID(),
		FromClient:     message.IsFromClient(),
		Type:           string(message.Type),
		Content:        message.Content,
		FileURL:        message.FileURL,
		FileName:       message.FileName,
		FileSize:       message.FileSize,
		MimeType:       message.MimeType,
		IsEdited:       message.IsEdited,
		ReplyToID:      message.ReplyToID,
		CreatedAt:      message.CreatedAt,
		UpdatedAt:      message.UpdatedAt,
	}
	if message.WhatsAppStatus != nil {
		status := string(*message.WhatsAppStatus)
		response.WhatsAppStatus = &status
	}
	if message.SenderUser != nil {
		response.SenderName = message.SenderUser.FullName()
	} else if message.SenderClient != nil {
		response.SenderName = message.SenderClient.Name
	}
	return response
}

// ToMessageListResponse transforms a slice of messages
func ToMessageListResponse(messages []*models.Message) MessageListResponse {
	out := MessageListResponse{Messages: make([]MessageResponse, 0, len(messages))}
	for _, m := range messages {
		out.Messages = append(out.Messages, ToMessageResponse(m))
	}
	return out
}
