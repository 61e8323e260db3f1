package model

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codecommunity/cchat/internal/outbox"
	"github.com/codecommunity/cchat/internal/presence"
	"github.com/codecommunity/cchat/internal/session"
	"github.com/codecommunity/cchat/internal/store"
	"github.com/codecommunity/cchat/internal/wire"
	"go.uber.org/zap"
)

type fakeBackend struct {
	mu      sync.Mutex
	roster  []store.Peer
	rosterE error
	history map[string][]wire.Message
	block   map[string]chan struct{} // optional gate per peer fetch
}

func (b *fakeBackend) FetchRoster(ctx context.Context) ([]store.Peer, error) {
	return b.roster, b.rosterE
}

func (b *fakeBackend) FetchHistory(ctx context.Context, peerID string) ([]wire.Message, error) {
	b.mu.Lock()
	gate := b.block[peerID]
	msgs := b.history[peerID]
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return msgs, nil
}

type fakeIntents struct {
	mu   sync.Mutex
	read []string
}

func (f *fakeIntents) ReadMessages(peerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.read = append(f.read, peerID)
	return nil
}

func newController(b *fakeBackend) (*Controller, *store.Store, *outbox.Queue, *fakeIntents) {
	s := store.New("me", nil, nil)
	p := presence.NewTracker(nil, s.OpenPeer)
	d := presence.NewDebouncer(time.Hour, nil, nil)
	q := outbox.NewQueue()
	in := &fakeIntents{}
	id := session.Identity{ID: "me", Name: "Me", Role: "developer"}
	return NewController(s, p, d, q, b, in, id, zap.NewNop()), s, q, in
}

func history(peer string, texts ...string) []wire.Message {
	var out []wire.Message
	for _, txt := range texts {
		out = append(out, wire.Message{
			ID:     peer + "-" + txt,
			Sender: wire.Party{ID: peer, Name: "User", Role: "client"},
			Text:   txt,
		})
	}
	return out
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBootstrap(t *testing.T) {
	b := &fakeBackend{roster: []store.Peer{{ID: "u1", Name: "Alice"}}}
	c, s, _, _ := newController(b)

	c.Bootstrap(context.Background())

	if len(s.Peers()) != 1 {
		t.Fatalf("roster = %v", s.Peers())
	}
}

func TestBootstrapFailureKeepsState(t *testing.T) {
	b := &fakeBackend{roster: []store.Peer{{ID: "u1"}}}
	c, s, _, _ := newController(b)
	c.Bootstrap(context.Background())

	b.rosterE = errors.New("backend down")
	c.Bootstrap(context.Background())

	if len(s.Peers()) != 1 {
		t.Error("failed fetch must leave last-known-good roster")
	}
}

func TestOpenFetchesHistoryOnce(t *testing.T) {
	b := &fakeBackend{history: map[string][]wire.Message{"u1": history("u1", "old")}}
	c, s, _, in := newController(b)
	defer c.Close()

	c.OpenConversation(context.Background(), "u1")
	waitFor(t, func() bool { return len(s.Messages()) == 1 }, "history")

	in.mu.Lock()
	read := append([]string(nil), in.read...)
	in.mu.Unlock()
	if len(read) != 1 || read[0] != "u1" {
		t.Errorf("readMessages intents = %v", read)
	}

	// Second open is served from cache; backend history changes must not show.
	b.mu.Lock()
	b.history["u1"] = history("u1", "different")
	b.mu.Unlock()
	c.OpenConversation(context.Background(), "u2")
	c.OpenConversation(context.Background(), "u1")
	if msgs := s.Messages(); len(msgs) != 1 || msgs[0].Text != "old" {
		t.Errorf("cached log = %v", msgs)
	}
}

// Switching conversations while the first history fetch is still in flight:
// the late response must not clobber the newer conversation.
func TestRapidSwitchDiscardsStaleFetch(t *testing.T) {
	gate := make(chan struct{})
	b := &fakeBackend{
		history: map[string][]wire.Message{
			"u1": history("u1", "slow"),
			"u2": history("u2", "fast"),
		},
		block: map[string]chan struct{}{"u1": gate},
	}
	c, s, _, _ := newController(b)
	defer c.Close()

	c.OpenConversation(context.Background(), "u1") // fetch blocks
	c.OpenConversation(context.Background(), "u2")
	waitFor(t, func() bool { return len(s.Messages()) == 1 }, "u2 history")

	close(gate) // let the stale u1 response land, if it wasn't cancelled

	time.Sleep(50 * time.Millisecond)
	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Text != "fast" {
		t.Errorf("open log = %v, want u2's history only", msgs)
	}
}

func TestSend(t *testing.T) {
	b := &fakeBackend{history: map[string][]wire.Message{"u1": nil}}
	c, s, q, _ := newController(b)
	defer c.Close()

	c.OpenConversation(context.Background(), "u1")
	waitFor(t, func() bool { return s.OpenPeer() == "u1" }, "open")

	c.Send("  hello there  ")

	waitFor(t, func() bool { return len(s.Messages()) == 1 }, "optimistic append")
	msgs := s.Messages()
	if msgs[0].Text != "hello there" {
		t.Errorf("text = %q, want trimmed", msgs[0].Text)
	}
	if msgs[0].Sender.ID != "me" || msgs[0].Sender.Role != "developer" {
		t.Errorf("sender = %+v", msgs[0].Sender)
	}
	if !strings.HasPrefix(msgs[0].ID, "local-") {
		t.Errorf("id = %q, want provisional local id", msgs[0].ID)
	}
	if msgs[0].Delivered {
		t.Error("optimistic message must start undelivered")
	}
	if q.Len() != 1 {
		t.Errorf("outbox len = %d, want 1", q.Len())
	}
}

func TestSendIgnoresBlankAndClosed(t *testing.T) {
	b := &fakeBackend{}
	c, s, q, _ := newController(b)
	defer c.Close()

	c.Send("no conversation open")
	c.OpenConversation(context.Background(), "u1")
	c.Send("   ")

	if q.Len() != 0 || len(s.Messages()) != 0 {
		t.Error("blank or unaddressed sends must be dropped")
	}
}
