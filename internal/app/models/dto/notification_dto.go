package dto

import (
	"time"

	"github.com/advoga/advoga/internal/app/models"
)

// UpdatePreferenceRequest partially updates notification preferences.
// Nil fields keep their current (or default) value.
type UpdatePreferenceRequest struct {
	EmailEnabled      *bool `json:"emailEnabled,omitempty"`
	PushEnabled       *bool `json:"pushEnabled,omitempty"`
	WhatsAppEnabled   *bool `json:"whatsappEnabled,omitempty"`
	UrgentOnly        *bool `json:"urgentOnly,omitempty"`
	BusinessHoursOnly *bool `json:"businessHoursOnly,omitempty"`
}

// PreferenceResponse represents the effective notification preferences
type PreferenceResponse struct {
	EmailEnabled      bool `json:"emailEnabled"`
	PushEnabled       bool `json:"pushEnabled"`
	WhatsAppEnabled   bool `json:"whatsappEnabled"`
	UrgentOnly        bool `json:"urgentOnly"`
	BusinessHoursOnly bool `json:"businessHoursOnly"`
}

// ToPreferenceResponse transforms a models.NotificationPreference
func ToPreferenceResponse(pref *models.NotificationPreference) PreferenceResponse {
	return PreferenceResponse{
		EmailEnabled:      pref.EmailEnabled,
		PushEnabled:       pref.PushEnabled,
		WhatsAppEnabled:   pref.WhatsAppEnabled,
		UrgentOnly:        pref.UrgentOnly,
		BusinessHoursOnly: pref.BusinessHoursOnly,
	}
}

// NotificationResponse represents one notification row
type NotificationResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	MessageID      string     `json:"messageId"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	IsRead         bool       `json:"isRead"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	IsSent         bool       `json:"isSent"`
	Channels       []string   `json:"channels"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// NotificationListResponse represents unread notifications with a total count
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

// ToNotificationResponse transforms a models.ChatNotification
func ToNotificationResponse(n *models.ChatNotification) NotificationResponse {
	channels := make([]string, 0, len(n.Channels))
	for _, c := range n.Channels {
		channels = append(channels, string(c))
	}
	return NotificationResponse{
		ID:             n.ID,
		ConversationID: n.ConversationID,
		MessageID:      n.MessageID,
		Type:           string(n.Type),
		Title:          n.Title,
		Content:        n.Content,
		IsRead:         n.IsRead,
		ReadAt:         n.ReadAt,
		IsSent:         n.IsSent,
		Channels:       channels,
		CreatedAt:      n.CreatedAt,
	}
}

// MarkAllReadResponse reports how many notifications were marked read
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
