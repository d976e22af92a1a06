package websocket

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development, in production this should be restricted
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a middleman between a websocket connection and the hub.
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// Buffered channel of outbound frames
	send chan []byte

	// Identity of the connected actor
	actorID   string
	actorType string // lawyer | staff | admin | client
	actorName string
	isClient  bool

	// Conversation this client is attached to
	conversationID string

	logger zerolog.Logger
}

// inboundFrame is what connected clients may push upstream: typing indicators
// and their own presence status. Chat messages go through the REST API so they
// are persisted before any broadcast.
type inboundFrame struct {
	Kind     string `json:"kind"`
	IsTyping bool   `json:"isTyping"`
	Status   string `json:"status"`
}

// readPump pumps frames from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info().
					Str("actorId", c.actorID).
					Str("conversationId", c.conversationID).
					Msg("WebSocket closed normally")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().
					Err(err).
					Str("actorId", c.actorID).
					Str("conversationId", c.conversationID).
					Msg("Unexpected WebSocket close")
			}
			break
		}

		raw = bytes.TrimSpace(bytes.Replace(raw, newline, space, -1))

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Debug().
				Err(err).
				Str("actorId", c.actorID).
				Msg("Discarding unparseable client frame")
			continue
		}

		switch frame.Kind {
		case "typing":
			// Identity comes from the authenticated connection, never the frame.
			c.hub.BroadcastTyping(&TypingEvent{
				ConversationID: c.conversationID,
				UserID:         c.actorID,
				UserName:       c.actorName,
				IsClient:       c.isClient,
				IsTyping:       frame.IsTyping,
			})
		case "presence":
			status := PresenceStatus(frame.Status)
			if status == PresenceOnline || status == PresenceAway {
				c.hub.presence.set(c.actorID, c.actorType, c.actorName, status, c.hub)
			}
		default:
			c.logger.Debug().
				Str("kind", frame.Kind).
				Str("actorId", c.actorID).
				Msg("Ignoring unknown client frame kind")
		}
	}
}

// writePump pumps events from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(frame)

			// Flush queued frames into the same write
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
