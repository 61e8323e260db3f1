// Package bus is the in-process event channel between the realtime session,
// the stores and the UI. Publishers never block: a subscriber that falls
// behind loses events rather than stalling the dispatch loop.
package bus

import (
	"strings"
	"sync"
	"time"
)

// Event is a domain event. Kind is dot-namespaced ("store.message",
// "presence.online", "session.state"); subscribers filter by prefix.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Bus fans events out to prefix-filtered subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*Subscription
	next int
}

// Subscription is one subscriber's view of the bus. Receive on C; call Close
// when done.
type Subscription struct {
	C <-chan Event

	prefix string
	ch     chan Event
	close  func()
	once   sync.Once
}

// Close detaches the subscription from the bus. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.close)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*Subscription)}
}

// Subscribe registers a subscriber for all events whose Kind starts with
// prefix. An empty prefix receives everything.
func (b *Bus) Subscribe(prefix string, buffer int) *Subscription {
	ch := make(chan Event, buffer)
	sub := &Subscription{C: ch, prefix: prefix, ch: ch}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	sub.close = func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
	return sub
}

// Publish delivers evt to every matching subscriber without blocking. The
// timestamp is filled in if the publisher left it zero.
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !strings.HasPrefix(evt.Kind, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			// Slow subscriber; drop.
		}
	}
}

// Emit is shorthand for Publish with just a kind and payload.
func (b *Bus) Emit(kind string, payload any) {
	b.Publish(Event{Kind: kind, Payload: payload})
}
