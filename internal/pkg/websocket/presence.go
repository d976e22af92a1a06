package websocket

import (
	"sync"
	"time"
)

// PresenceTracker holds the ephemeral online state of every connected actor.
// Nothing here is persisted; state exists only as long as the process and is
// implicitly reset to offline on disconnect.
type PresenceTracker struct {
	mu       sync.RWMutex
	statuses map[string]*PresenceEvent

	subsMu sync.RWMutex
	subs   []*subscription
}

func newPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		statuses: make(map[string]*PresenceEvent),
	}
}

// SetStatus updates an actor's own presence (online/away/offline) and
// broadcasts the delta to everyone sharing the presence scope.
func (p *PresenceTracker) SetStatus(hub *Hub, actorID, actorType, actorName string, status PresenceStatus) {
	if p == nil {
		return
	}
	p.set(actorID, actorType, actorName, status, hub)
}

// Subscribe registers a callback for presence deltas and returns an
// unsubscribe function. Safe on a nil tracker.
func (p *PresenceTracker) Subscribe(fn func(*PresenceEvent)) func() {
	if p == nil || fn == nil {
		return func() {}
	}

	sub := &subscription{fn: func(e *Event) {
		if e.Presence != nil {
			fn(e.Presence)
		}
	}}

	p.subsMu.Lock()
	p.subs = append(p.subs, sub)
	p.subsMu.Unlock()

	return func() {
		p.subsMu.Lock()
		defer p.subsMu.Unlock()
		for i, s := range p.subs {
			if s == sub {
				p.subs[i] = p.subs[len(p.subs)-1]
				p.subs = p.subs[:len(p.subs)-1]
				break
			}
		}
	}
}

// Snapshot returns the current non-offline statuses.
func (p *PresenceTracker) Snapshot() []PresenceEvent {
	if p == nil {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]PresenceEvent, 0, len(p.statuses))
	for _, status := range p.statuses {
		out = append(out, *status)
	}
	return out
}

func (p *PresenceTracker) set(actorID, actorType, actorName string, status PresenceStatus, hub *Hub) {
	event := &PresenceEvent{
		UserID:   actorID,
		UserType: actorType,
		UserName: actorName,
		Status:   status,
	}

	p.mu.Lock()
	if status == PresenceOffline {
		delete(p.statuses, actorID)
	} else {
		p.statuses[actorID] = event
	}
	p.mu.Unlock()

	p.subsMu.RLock()
	for _, sub := range p.subs {
		sub.fn(&Event{Kind: EventPresence, Presence: event, Timestamp: time.Now()})
	}
	p.subsMu.RUnlock()

	// Fan out directly instead of enqueueing: set runs inside the hub loop
	// on register/unregister, and a send to the hub's own queue from there
	// can block it forever once the buffer fills.
	if hub != nil {
		hub.broadcastEvent(&Event{Kind: EventPresence, Presence: event, Timestamp: time.Now()})
	}
}
