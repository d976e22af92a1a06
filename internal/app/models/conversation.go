package models

import "time"

// ConversationType classifies what a conversation is about
type ConversationType string

const (
	ConversationGeneral       ConversationType = "general"
	ConversationMatterLinked  ConversationType = "matter_specific"
	ConversationConsultation  ConversationType = "consultation"
	ConversationUrgent        ConversationType = "urgent"
	ConversationWhatsAppBound ConversationType = "whatsapp"
)

// ConversationStatus is the lifecycle state of a conversation.
// Conversations are never hard-deleted; they are archived or closed.
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationArchived ConversationStatus = "archived"
	ConversationClosed   ConversationStatus = "closed"
)

// ConversationPriority drives notification classification and urgent-only filtering
type ConversationPriority string

const (
	PriorityLow    ConversationPriority = "low"
	PriorityNormal ConversationPriority = "normal"
	PriorityHigh   ConversationPriority = "high"
	PriorityUrgent ConversationPriority = "urgent"
)

// Conversation defines a thread between a client and one or more staff members,
// based on the 'conversations' table
type Conversation struct {
	ID              string               `json:"id" db:"id"`
	TenantID        string               `json:"tenantId" db:"tenant_id"`
	MatterID        *string              `json:"matterId,omitempty" db:"matter_id"` // Optional link to a legal matter
	ClientID        *string              `json:"clientId,omitempty" db:"client_id"`
	Title           string               `json:"title" db:"title"`
	Type            ConversationType     `json:"type" db:"conversation_type"`
	Status          ConversationStatus   `json:"status" db:"status"`
	Priority        ConversationPriority `json:"priority" db:"priority"`
	WhatsAppEnabled bool                 `json:"whatsappEnabled" db:"whatsapp_enabled"`
	WhatsAppPhone   *string              `json:"whatsappPhone,omitempty" db:"whatsapp_phone"`
	LastMessageAt   *time.Time           `json:"lastMessageAt,omitempty" db:"last_message_at"`
	CreatedAt       time.Time            `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time            `json:"updatedAt" db:"updated_at"`

	// Related entities, populated by repository joins
	Client       *Client                    `json:"client,omitempty"`
	Participants []*ConversationParticipant `json:"participants,omitempty"`
}

// ConversationParticipant links a conversation to a user or client, based on
// the 'conversation_participants' table. Exactly one of UserID/ClientID is set.
type ConversationParticipant struct {
	ID             string          `json:"id" db:"id"`
	ConversationID string          `json:"conversationId" db:"conversation_id"`
	UserID         *string         `json:"userId,omitempty" db:"user_id"`
	ClientID       *string         `json:"clientId,omitempty" db:"client_id"`
	Type           ParticipantType `json:"participantType" db:"participant_type"`
	Role           ParticipantRole `json:"role" db:"role"`
	JoinedAt       time.Time       `json:"joinedAt" db:"joined_at"`
	LastReadAt     *time.Time      `json:"lastReadAt,omitempty" db:"last_read_at"`
}

// IsClient reports whether this participant is a portal client
func (p *ConversationParticipant) IsClient() bool {
	return p.ClientID != nil
}

// RecipientID returns the id of whichever actor this participant is
func (p *ConversationParticipant) RecipientID() string {
	if p.ClientID != nil {
		return *p.ClientID
	}
	if p.UserID != nil {
		return *p.UserID
	}
	return ""
}
