package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	return hub
}

func waitFor(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSubscribeReceivesBroadcast(t *testing.T) {
	hub := startHub(t)

	received := make(chan *Event, 1)
	unsub := hub.Subscribe("conv-1", func(e *Event) { received <- e })
	defer unsub()

	sent := &MessageEvent{
		ID:             "msg-1",
		ConversationID: "conv-1",
		SenderID:       "client-1",
		SenderIsClient: true,
		Type:           "text",
		Content:        "ola, tudo bem?",
	}
	hub.BroadcastMessage(sent)

	event := waitFor(t, received)
	if event.Kind != EventMessage {
		t.Fatalf("event kind = %q, want message", event.Kind)
	}
	if event.Message.Content != sent.Content ||
		event.Message.SenderID != sent.SenderID ||
		event.Message.ConversationID != sent.ConversationID {
		t.Errorf("round-trip mismatch: got %+v, want %+v", event.Message, sent)
	}
}

func TestSubscribersAreIndependent(t *testing.T) {
	hub := startHub(t)

	first := make(chan *Event, 1)
	second := make(chan *Event, 1)
	defer hub.Subscribe("conv-1", func(e *Event) { first <- e })()
	defer hub.Subscribe("conv-1", func(e *Event) { second <- e })()

	other := make(chan *Event, 1)
	defer hub.Subscribe("conv-2", func(e *Event) { other <- e })()

	hub.BroadcastMessage(&MessageEvent{ID: "m1", ConversationID: "conv-1", Content: "hi"})

	waitFor(t, first)
	waitFor(t, second)

	select {
	case <-other:
		t.Error("subscriber on another conversation must not receive the event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := startHub(t)

	var mu sync.Mutex
	count := 0
	unsub := hub.Subscribe("conv-1", func(*Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	hub.BroadcastTyping(&TypingEvent{ConversationID: "conv-1", UserID: "u1", IsTyping: true})
	time.Sleep(50 * time.Millisecond)
	unsub()
	hub.BroadcastTyping(&TypingEvent{ConversationID: "conv-1", UserID: "u1", IsTyping: false})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("listener fired %d times, want 1", count)
	}
}

func TestSubscribeOnNilHubIsSafe(t *testing.T) {
	var hub *Hub

	unsub := hub.Subscribe("conv-1", func(*Event) {})
	if unsub == nil {
		t.Fatal("nil hub must still return an unsubscribe function")
	}
	unsub()

	// Broadcasts on a nil hub are dropped, not a panic.
	hub.BroadcastMessage(&MessageEvent{ID: "m1"})
	hub.BroadcastTyping(&TypingEvent{UserID: "u1"})
}

func TestPresenceDeltas(t *testing.T) {
	hub := startHub(t)

	deltas := make(chan *PresenceEvent, 4)
	unsub := hub.Presence().Subscribe(func(e *PresenceEvent) { deltas <- e })
	defer unsub()

	hub.Presence().SetStatus(hub, "user-1", "lawyer", "Ana Souza", PresenceOnline)

	select {
	case d := <-deltas:
		if d.UserID != "user-1" || d.Status != PresenceOnline {
			t.Errorf("delta = %+v", d)
		}
	case <-time.After(time.Second):
		t.Fatal("no presence delta received")
	}

	snapshot := hub.Presence().Snapshot()
	if len(snapshot) != 1 || snapshot[0].UserID != "user-1" {
		t.Errorf("snapshot = %+v", snapshot)
	}

	hub.Presence().SetStatus(hub, "user-1", "lawyer", "Ana Souza", PresenceOffline)
	<-deltas
	if len(hub.Presence().Snapshot()) != 0 {
		t.Error("offline actor must leave the snapshot")
	}
}

// Presence changes fire from inside the hub loop on register/unregister, so
// they must never wait on the hub's own broadcast queue.
func TestPresenceUpdateDoesNotBlockOnFullQueue(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	received := make(chan *Event, 1)
	defer hub.SubscribeAll(func(e *Event) {
		if e.Kind == EventPresence {
			received <- e
		}
	})()

	for i := 0; i < cap(hub.broadcast); i++ {
		hub.BroadcastTyping(&TypingEvent{ConversationID: "conv-1", UserID: "u1", IsTyping: true})
	}

	done := make(chan struct{})
	go func() {
		hub.Presence().SetStatus(hub, "user-1", "lawyer", "Ana Souza", PresenceOnline)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("presence update blocked on a full broadcast queue")
	}

	event := waitFor(t, received)
	if event.Presence == nil || event.Presence.UserID != "user-1" {
		t.Errorf("presence event = %+v", event)
	}
}
