package models

import "time"

// MessageType represents the type of a chat message
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageFile     MessageType = "file"
	MessageImage    MessageType = "image"
	MessageDocument MessageType = "document"
	MessageSystem   MessageType = "system"
	MessageWhatsApp MessageType = "whatsapp"
)

// DeliveryStatus is the per-recipient delivery state of a message
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
	StatusFailed    DeliveryStatus = "failed"
)

// Message defines a chat message based on the 'messages' table.
// Exactly one of SenderUserID/SenderClientID is set for non-system messages;
// system messages carry neither. Immutable once delivered, except for the
// status, edited and deleted flags.
type Message struct {
	ID             string      `json:"id" db:"id"`
	ConversationID string      `json:"conversationId" db:"conversation_id"`
	SenderUserID   *string     `json:"senderUserId,omitempty" db:"sender_user_id"`
	SenderClientID *string     `json:"senderClientId,omitempty" db:"sender_client_id"`
	Type           MessageType `json:"type" db:"message_type"`
	Content        string      `json:"content" db:"content"`

	// Optional file metadata for file/image/document messages
	FileURL  *string `json:"fileUrl,omitempty" db:"file_url"`
	FileName *string `json:"fileName,omitempty" db:"file_name"`
	FileSize *int64  `json:"fileSize,omitempty" db:"file_size"`
	MimeType *string `json:"mimeType,omitempty" db:"mime_type"`

	// Provider bookkeeping for WhatsApp-originated or WhatsApp-delivered messages
	WhatsAppMessageID *string         `json:"whatsappMessageId,omitempty" db:"whatsapp_message_id"`
	WhatsAppStatus    *DeliveryStatus `json:"whatsappStatus,omitempty" db:"whatsapp_status"`

	IsEdited  bool    `json:"isEdited" db:"is_edited"`
	IsDeleted bool    `json:"isDeleted" db:"is_deleted"`
	ReplyToID *string `json:"replyToId,omitempty" db:"reply_to_id"` // Same-conversation reference

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Related entities, populated by repository joins
	SenderUser   *User   `json:"senderUser,omitempty"`
	SenderClient *Client `json:"senderClient,omitempty"`
}

// IsFromClient reports whether the message was sent by a portal client
func (m *Message) IsFromClient() bool {
	return m.SenderClientID != nil
}

// SenderID returns the id of whichever actor sent the message, empty for system messages
func (m *Message) SenderID() string {
	if m.SenderClientID != nil {
		return *m.SenderClientID
	}
	if m.SenderUserID != nil {
		return *m.SenderUserID
	}
	return ""
}

// MessageStatus records per-message per-recipient delivery state, based on the
// 'message_statuses' table. At most one row per (message, recipient); the
// latest write wins, no ordering is enforced between status values.
type MessageStatus struct {
	ID          string         `json:"id" db:"id"`
	MessageID   string         `json:"messageId" db:"message_id"`
	UserID      *string        `json:"userId,omitempty" db:"user_id"`
	ClientID    *string        `json:"clientId,omitempty" db:"client_id"`
	Status      DeliveryStatus `json:"status" db:"status"`
	StatusAt    time.Time      `json:"statusAt" db:"status_at"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
}
