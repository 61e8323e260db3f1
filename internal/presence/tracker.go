// Package presence tracks which peers are online and whether the open
// conversation's peer is typing, and debounces the local user's outbound
// typing signals.
package presence

import (
	"sync"

	"github.com/codecommunity/cchat/internal/bus"
	"github.com/codecommunity/cchat/internal/wire"
)

// Bus event kinds published by the tracker.
const (
	EventOnline  = "presence.online"
	EventOffline = "presence.offline"
	EventTyping  = "presence.typing"
)

// Tracker maintains the online-peer set and the open peer's typing flag.
// Membership changes only on explicit online/offline events; there is no
// heartbeat timeout.
type Tracker struct {
	mu     sync.Mutex
	online map[string]struct{}
	typing bool

	openPeer func() string // supplies the open conversation's peer id
	bus      *bus.Bus
}

// NewTracker creates a tracker. openPeer reports the currently open
// conversation's normalized peer id ("" when none) and gates typing state.
func NewTracker(b *bus.Bus, openPeer func() string) *Tracker {
	if openPeer == nil {
		openPeer = func() string { return "" }
	}
	return &Tracker{
		online:   make(map[string]struct{}),
		openPeer: openPeer,
		bus:      b,
	}
}

// MarkOnline inserts a peer into the online set. Idempotent.
func (t *Tracker) MarkOnline(peerID string) {
	key := wire.NormalizeID(peerID)
	if key == "" {
		return
	}
	t.mu.Lock()
	_, already := t.online[key]
	t.online[key] = struct{}{}
	t.mu.Unlock()
	if !already {
		t.emit(EventOnline, key)
	}
}

// MarkOffline removes a peer from the online set. No-op for absent peers.
// Going offline also clears the peer's typing flag if their conversation is
// open; a disconnected peer cannot still be typing.
func (t *Tracker) MarkOffline(peerID string) {
	key := wire.NormalizeID(peerID)
	if key == "" {
		return
	}
	t.mu.Lock()
	_, present := t.online[key]
	delete(t.online, key)
	clearTyping := present && t.typing && key == t.openPeer()
	if clearTyping {
		t.typing = false
	}
	t.mu.Unlock()
	if present {
		t.emit(EventOffline, key)
	}
	if clearTyping {
		t.emit(EventTyping, false)
	}
}

// Online reports whether a peer is in the online set.
func (t *Tracker) Online(peerID string) bool {
	key := wire.NormalizeID(peerID)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.online[key]
	return ok
}

// SetTyping records a typing signal from a peer. Signals from anyone but the
// open conversation's peer are ignored.
func (t *Tracker) SetTyping(peerID string, isTyping bool) {
	key := wire.NormalizeID(peerID)
	if key == "" || key != t.openPeer() {
		return
	}
	t.mu.Lock()
	changed := t.typing != isTyping
	t.typing = isTyping
	t.mu.Unlock()
	if changed {
		t.emit(EventTyping, isTyping)
	}
}

// Typing reports whether the open conversation's peer is typing.
func (t *Tracker) Typing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing
}

// ClearTyping drops the typing flag, used when the open conversation
// changes; the flag is scoped to one conversation.
func (t *Tracker) ClearTyping() {
	t.mu.Lock()
	changed := t.typing
	t.typing = false
	t.mu.Unlock()
	if changed {
		t.emit(EventTyping, false)
	}
}

// Reset empties the online set and typing flag. Used on session teardown.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.online = make(map[string]struct{})
	t.typing = false
	t.mu.Unlock()
}

func (t *Tracker) emit(kind string, payload any) {
	if t.bus != nil {
		t.bus.Emit(kind, payload)
	}
}
