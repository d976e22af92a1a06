package models

import "time"

// NotificationType classifies why a notification was created
type NotificationType string

const (
	NotificationNewMessage   NotificationType = "new_message"
	NotificationMention      NotificationType = "mention"
	NotificationUrgent       NotificationType = "urgent"
	NotificationWhatsApp     NotificationType = "whatsapp"
	NotificationStatusUpdate NotificationType = "status_update"
)

// NotificationChannel is a delivery mechanism for a notification
type NotificationChannel string

const (
	ChannelEmail    NotificationChannel = "email"
	ChannelPush     NotificationChannel = "push"
	ChannelWhatsApp NotificationChannel = "whatsapp"
)

// ChatNotification defines a notification row based on the 'chat_notifications'
// table. Created unsent and unread when a qualifying message arrives, mutated
// to record sent/read, never deleted.
type ChatNotification struct {
	ID             string                `json:"id" db:"id"`
	UserID         *string               `json:"userId,omitempty" db:"user_id"`
	ClientID       *string               `json:"clientId,omitempty" db:"client_id"`
	ConversationID string                `json:"conversationId" db:"conversation_id"`
	MessageID      string                `json:"messageId" db:"message_id"`
	Type           NotificationType      `json:"type" db:"notification_type"`
	Title          string                `json:"title" db:"title"`
	Content        string                `json:"content" db:"content"`
	IsRead         bool                  `json:"isRead" db:"is_read"`
	ReadAt         *time.Time            `json:"readAt,omitempty" db:"read_at"`
	IsSent         bool                  `json:"isSent" db:"is_sent"`
	Channels       []NotificationChannel `json:"channels" db:"channels"` // Channels actually attempted
	CreatedAt      time.Time             `json:"createdAt" db:"created_at"`
}

// NotificationPreference holds per-recipient channel settings based on the
// 'notification_preferences' table. When no row exists the service layer
// synthesizes defaults instead of failing.
type NotificationPreference struct {
	ID                string    `json:"id" db:"id"`
	UserID            *string   `json:"userId,omitempty" db:"user_id"`
	ClientID          *string   `json:"clientId,omitempty" db:"client_id"`
	EmailEnabled      bool      `json:"emailEnabled" db:"email_enabled"`
	PushEnabled       bool      `json:"pushEnabled" db:"push_enabled"`
	WhatsAppEnabled   bool      `json:"whatsappEnabled" db:"whatsapp_enabled"`
	UrgentOnly        bool      `json:"urgentOnly" db:"urgent_only"`
	BusinessHoursOnly bool      `json:"businessHoursOnly" db:"business_hours_only"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}

// DefaultPreference returns the synthesized preference for a recipient with no
// stored row. Staff get email and push with WhatsApp off; clients additionally
// default to business-hours-only delivery.
func DefaultPreference(recipientID string, isClient bool) *NotificationPreference {
	pref := &NotificationPreference{
		EmailEnabled:      true,
		PushEnabled:       true,
		WhatsAppEnabled:   false,
		UrgentOnly:        false,
		BusinessHoursOnly: isClient,
	}
	if isClient {
		pref.ClientID = &recipientID
	} else {
		pref.UserID = &recipientID
	}
	return pref
}
