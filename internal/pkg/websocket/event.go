package websocket

import "time"

// EventKind discriminates the realtime event envelope.
type EventKind string

const (
	EventMessage  EventKind = "message"
	EventTyping   EventKind = "typing"
	EventPresence EventKind = "presence"
)

// PresenceStatus is the ephemeral online state of a connected actor.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceOffline PresenceStatus = "offline"
)

// Event is the wire envelope broadcast on conversation and presence channels.
// Exactly one payload field is set, matching Kind.
type Event struct {
	Kind           EventKind        `json:"kind"`
	ConversationID string           `json:"conversationId,omitempty"`
	Message        *MessageEvent    `json:"message,omitempty"`
	Typing         *TypingEvent     `json:"typing,omitempty"`
	Presence       *PresenceEvent   `json:"presence,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// MessageEvent carries a persisted chat message to connected participants.
type MessageEvent struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversationId"`
	SenderID       string  `json:"senderId"`
	SenderIsClient bool    `json:"senderIsClient"`
	SenderName     string  `json:"senderName,omitempty"`
	Type           string  `json:"type"`
	Content        string  `json:"content"`
	FileURL        *string `json:"fileUrl,omitempty"`
	FileName       *string `json:"fileName,omitempty"`
	ReplyToID      *string `json:"replyToId,omitempty"`
}

// TypingEvent is a broadcast-only typing indicator; never persisted, never
// acknowledged.
type TypingEvent struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
	IsClient       bool   `json:"isClient"`
	IsTyping       bool   `json:"isTyping"`
}

// PresenceEvent is a join/leave/status delta on the shared presence scope.
type PresenceEvent struct {
	UserID   string         `json:"userId"`
	UserType string         `json:"userType"`
	UserName string         `json:"userName"`
	Status   PresenceStatus `json:"status"`
}
