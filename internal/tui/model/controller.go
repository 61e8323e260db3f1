// Package model bridges the UI to the chat core: it owns the fetch
// lifecycle around the conversation store and turns user gestures into
// store mutations, outbox entries and realtime intents.
package model

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/codecommunity/cchat/internal/outbox"
	"github.com/codecommunity/cchat/internal/presence"
	"github.com/codecommunity/cchat/internal/session"
	"github.com/codecommunity/cchat/internal/store"
	"github.com/codecommunity/cchat/internal/wire"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend is the REST collaborator surface the controller fetches from.
type Backend interface {
	FetchRoster(ctx context.Context) ([]store.Peer, error)
	FetchHistory(ctx context.Context, peerID string) ([]wire.Message, error)
}

// Intents is the realtime intent surface the controller emits to.
type Intents interface {
	ReadMessages(peerID string) error
}

// Controller coordinates roster/history fetches, sends and typing for the
// UI. All methods are safe to call from UI callbacks.
type Controller struct {
	store    *store.Store
	presence *presence.Tracker
	debounce *presence.Debouncer
	queue    *outbox.Queue
	backend  Backend
	intents  Intents
	identity session.Identity
	logger   *zap.Logger

	mu          sync.Mutex
	fetchCancel context.CancelFunc // cancels the in-flight history fetch
}

// NewController wires a controller over the chat core.
func NewController(s *store.Store, p *presence.Tracker, d *presence.Debouncer, q *outbox.Queue, backend Backend, intents Intents, id session.Identity, logger *zap.Logger) *Controller {
	return &Controller{
		store:    s,
		presence: p,
		debounce: d,
		queue:    q,
		backend:  backend,
		intents:  intents,
		identity: id,
		logger:   logger,
	}
}

// Bootstrap fetches the roster. A failure is logged and leaves whatever the
// store already holds.
func (c *Controller) Bootstrap(ctx context.Context) {
	peers, err := c.backend.FetchRoster(ctx)
	if err != nil {
		c.logger.Warn("roster fetch failed", zap.Error(err))
		return
	}
	c.store.ReplaceRoster(peers)
}

// OpenConversation activates a peer's conversation: zeroes its unread
// counter, tells the server its messages are read, and on a cache miss
// fetches history in the background. A fetch still in flight for a
// previously opened conversation is cancelled; its response would be
// discarded by the store's generation check anyway.
func (c *Controller) OpenConversation(ctx context.Context, peerID string) {
	gen, _, cached := c.store.Open(peerID)
	c.presence.ClearTyping()

	if err := c.intents.ReadMessages(peerID); err != nil {
		c.logger.Debug("readMessages intent not sent", zap.Error(err))
	}
	if cached {
		return
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.fetchCancel != nil {
		c.fetchCancel()
	}
	c.fetchCancel = cancel
	c.mu.Unlock()

	go func() {
		defer cancel()
		msgs, err := c.backend.FetchHistory(fetchCtx, peerID)
		if err != nil {
			c.logger.Warn("history fetch failed", zap.String("peer", peerID), zap.Error(err))
			return
		}
		c.store.ApplyHistory(peerID, gen, msgs)
	}()
}

// Send queues an outgoing message for the open conversation: optimistic
// append now, transport delivery via the outbox. Blank input is ignored.
func (c *Controller) Send(text string) {
	text = strings.TrimSpace(text)
	peer := c.store.OpenPeer()
	if text == "" || peer == "" {
		return
	}

	receiver := wire.Party{ID: peer, Name: wire.DefaultName, Role: wire.DefaultRole}
	if p, ok := c.store.Peer(peer); ok {
		receiver.Name = p.Name
		receiver.Role = p.Role
	}

	msg := wire.Message{
		ID: "local-" + uuid.New().String(),
		Sender: wire.Party{
			ID:   c.identity.ID,
			Name: c.identity.Name,
			Role: c.identity.Role,
		},
		Receiver:  receiver,
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	c.store.AppendOutbound(msg)
	c.queue.Enqueue(outbox.Entry{ClientMsgID: msg.ID, PeerID: peer, Text: text})
	c.debounce.Flush()
}

// Keystroke reports local input in the composer, driving the outbound
// typing debounce toward the open peer.
func (c *Controller) Keystroke() {
	if peer := c.store.OpenPeer(); peer != "" {
		c.debounce.Keystroke(peer)
	}
}

// Close releases the controller's timers and in-flight fetches. Part of
// session teardown.
func (c *Controller) Close() {
	c.debounce.Cancel()
	c.mu.Lock()
	if c.fetchCancel != nil {
		c.fetchCancel()
		c.fetchCancel = nil
	}
	c.mu.Unlock()
}
