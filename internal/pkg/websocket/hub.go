package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients and broadcasts events to the
// participants of each conversation. Rooms are keyed by conversation id and
// created lazily exactly once; concurrent subscribers on the same key share
// the room.
type Hub struct {
	// Registered websocket clients organized by conversation id
	rooms map[string]map[*Client]bool

	// Inbound events to fan out
	broadcast chan *Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Guards rooms
	mu sync.RWMutex

	// In-process subscriptions, keyed by conversation id. The empty key
	// receives every event.
	listenersMu sync.RWMutex
	listeners   map[string][]*subscription

	presence *PresenceTracker

	logger zerolog.Logger
}

type subscription struct {
	fn func(*Event)
}

// NewHub creates a new Hub instance.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		listeners:  make(map[string][]*subscription),
		presence:   newPresenceTracker(),
		logger:     logger,
	}
}

// Run starts the hub loop. Call once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Subscribe registers an in-process callback for every event on a
// conversation and returns an unsubscribe function. Subscribing on a nil hub
// (realtime transport unavailable) returns a no-op unsubscriber so callers
// degrade instead of crashing.
func (h *Hub) Subscribe(conversationID string, fn func(*Event)) func() {
	if h == nil || fn == nil {
		return func() {}
	}

	sub := &subscription{fn: fn}

	h.listenersMu.Lock()
	h.listeners[conversationID] = append(h.listeners[conversationID], sub)
	h.listenersMu.Unlock()

	return func() {
		h.listenersMu.Lock()
		defer h.listenersMu.Unlock()

		subs := h.listeners[conversationID]
		for i, s := range subs {
			if s == sub {
				subs[i] = subs[len(subs)-1]
				h.listeners[conversationID] = subs[:len(subs)-1]
				break
			}
		}
		if len(h.listeners[conversationID]) == 0 {
			delete(h.listeners, conversationID)
		}
	}
}

// SubscribeAll registers a callback for events on every conversation.
func (h *Hub) SubscribeAll(fn func(*Event)) func() {
	return h.Subscribe("", fn)
}

// BroadcastMessage fans a persisted message out to the conversation's room.
// Callers must only invoke this after the message has been stored.
func (h *Hub) BroadcastMessage(msg *MessageEvent) {
	if h == nil || msg == nil {
		return
	}
	h.broadcast <- &Event{
		Kind:           EventMessage,
		ConversationID: msg.ConversationID,
		Message:        msg,
		Timestamp:      time.Now(),
	}
}

// BroadcastTyping fans a typing indicator out to the conversation's room.
func (h *Hub) BroadcastTyping(typing *TypingEvent) {
	if h == nil || typing == nil {
		return
	}
	h.broadcast <- &Event{
		Kind:           EventTyping,
		ConversationID: typing.ConversationID,
		Typing:         typing,
		Timestamp:      time.Now(),
	}
}

// Presence returns the hub's presence tracker.
func (h *Hub) Presence() *PresenceTracker {
	if h == nil {
		return nil
	}
	return h.presence
}

// RoomSize returns the number of connected clients for a conversation.
func (h *Hub) RoomSize(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.rooms[client.conversationID]; !ok {
		h.rooms[client.conversationID] = make(map[*Client]bool)
	}
	h.rooms[client.conversationID][client] = true
	h.mu.Unlock()

	h.presence.set(client.actorID, client.actorType, client.actorName, PresenceOnline, h)

	h.logger.Info().
		Str("conversationId", client.conversationID).
		Str("actorId", client.actorID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Realtime client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.conversationID]
	if ok {
		if _, ok := room[client]; ok {
			delete(room, client)
			close(client.send)
			if len(room) == 0 {
				delete(h.rooms, client.conversationID)
			}
		} else {
			ok = false
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	// Disconnect implies offline; no heartbeat timeout beyond the transport's.
	h.presence.set(client.actorID, client.actorType, client.actorName, PresenceOffline, h)

	h.logger.Info().
		Str("conversationId", client.conversationID).
		Str("actorId", client.actorID).
		Msg("Realtime client unregistered")
}

func (h *Hub) broadcastEvent(event *Event) {
	h.notifyListeners(event)

	h.mu.RLock()

	var targets []*Client
	if event.Kind == EventPresence {
		// Presence is a shared scope: every connected client sees it.
		for _, room := range h.rooms {
			for client := range room {
				targets = append(targets, client)
			}
		}
	} else {
		for client := range h.rooms[event.ConversationID] {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).
			Str("conversationId", event.ConversationID).
			Msg("Failed to marshal realtime event")
		return
	}

	for _, client := range targets {
		select {
		case client.send <- data:
		default:
			// Send buffer full: the client is slow or gone. Drop it.
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

func (h *Hub) notifyListeners(event *Event) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()

	for _, sub := range h.listeners[event.ConversationID] {
		sub.fn(event)
	}
	if event.ConversationID != "" {
		for _, sub := range h.listeners[""] {
			sub.fn(event)
		}
	}
}
