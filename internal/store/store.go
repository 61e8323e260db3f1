// Package store is the single source of truth for the client's view of its
// conversations: the roster with previews and unread counters, the per-peer
// message logs, and the currently open conversation.
//
// Logs are kept in arrival order and are never re-sorted. Only conversations
// that have been opened hold a log; an inbound message for a closed
// conversation updates the peer's preview and unread counter but is not
// buffered.
package store

import (
	"sync"

	"github.com/codecommunity/cchat/internal/bus"
	"github.com/codecommunity/cchat/internal/wire"
	"go.uber.org/zap"
)

// Store owns all per-session conversation state. All methods are safe for
// concurrent use; the socket read loop, REST fetches and the UI all touch it.
type Store struct {
	mu     sync.Mutex
	self   string // normalized current-user id
	peers  map[string]*Peer
	order  []string // roster display order, normalized ids
	logs   map[string][]wire.Message
	opened map[string]bool // peers whose history has been applied at least once
	open   string          // normalized id of the open peer, "" if none
	gen    uint64          // bumped on every Open; guards stale history fetches

	bus    *bus.Bus
	logger *zap.Logger
}

// New creates an empty store for the user named by selfID.
func New(selfID string, b *bus.Bus, logger *zap.Logger) *Store {
	return &Store{
		self:   wire.NormalizeID(selfID),
		peers:  make(map[string]*Peer),
		logs:   make(map[string][]wire.Message),
		opened: make(map[string]bool),
		bus:    b,
		logger: logger,
	}
}

// ReplaceRoster installs the fetched roster, dropping whatever was known
// before. Entries with an unusable id are skipped. Missing unread counts and
// previews stay at their zero values.
func (s *Store) ReplaceRoster(peers []Peer) {
	s.mu.Lock()
	s.peers = make(map[string]*Peer, len(peers))
	s.order = s.order[:0]
	for i := range peers {
		p := peers[i]
		key := wire.NormalizeID(p.ID)
		if key == "" || key == wire.UnknownID {
			continue
		}
		p.ID = key
		if p.Unread < 0 {
			p.Unread = 0
		}
		if _, dup := s.peers[key]; dup {
			continue
		}
		s.peers[key] = &p
		s.order = append(s.order, key)
	}
	s.mu.Unlock()
	s.emit(EventRoster, nil)
}

// Open marks peerID's conversation as the active one, zeroes its unread
// counter and returns the generation token for this open plus the cached log
// (nil, cached=false when history has not been applied yet). The caller is
// expected to fetch history on a cache miss and hand it to ApplyHistory with
// the same generation.
func (s *Store) Open(peerID string) (gen uint64, log []wire.Message, cached bool) {
	key := wire.NormalizeID(peerID)
	if key == "" {
		return 0, nil, false
	}

	s.mu.Lock()
	s.ensurePeerLocked(key, "", "")
	s.open = key
	s.gen++
	gen = s.gen
	s.peers[key].Unread = 0
	cached = s.opened[key]
	if cached {
		log = append([]wire.Message(nil), s.logs[key]...)
	}
	s.mu.Unlock()

	s.emit(EventOpen, key)
	s.emit(EventPreview, key)
	return gen, log, cached
}

// Close deactivates the open conversation without touching its cached log.
func (s *Store) Close() {
	s.mu.Lock()
	s.open = ""
	s.gen++
	s.mu.Unlock()
	s.emit(EventOpen, "")
}

// ApplyHistory installs a fetched history log for peerID. The write is
// discarded unless gen still names the latest Open — a slow response for a
// conversation the user has already switched away from must not clobber the
// newer one.
func (s *Store) ApplyHistory(peerID string, gen uint64, msgs []wire.Message) bool {
	key := wire.NormalizeID(peerID)

	s.mu.Lock()
	if gen != s.gen || key != s.open {
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Debug("stale history response discarded",
				zap.String("peer", key), zap.Uint64("gen", gen))
		}
		return false
	}
	s.logs[key] = append([]wire.Message(nil), msgs...)
	s.opened[key] = true
	s.mu.Unlock()

	s.emit(EventMessage, key)
	return true
}

// AppendInbound routes an inbound message: the conversation key is whichever
// party is not the current user. The open conversation gets the message
// appended; any other conversation only gets its preview and unread counter
// updated, creating the roster entry on demand. Unattributable messages are
// dropped.
func (s *Store) AppendInbound(msg wire.Message) {
	key, peerName, peerRole := s.attribute(msg)
	if key == "" || key == wire.UnknownID {
		if s.logger != nil {
			s.logger.Warn("dropping unattributable message", zap.String("msg_id", msg.ID))
		}
		return
	}

	s.mu.Lock()
	s.ensurePeerLocked(key, peerName, peerRole)
	p := s.peers[key]
	p.LastMessage = msg.Text
	p.LastMessageTime = msg.Timestamp

	isOpen := key == s.open
	if isOpen {
		s.logs[key] = append(s.logs[key], msg)
		p.Unread = 0
	} else {
		p.Unread++
	}
	s.mu.Unlock()

	if isOpen {
		s.emit(EventMessage, key)
	}
	s.emit(EventPreview, key)
}

// AppendOutbound optimistically appends a locally-sent message to the open
// conversation and refreshes the peer's preview. No-op when no conversation
// is open.
func (s *Store) AppendOutbound(msg wire.Message) {
	s.mu.Lock()
	key := s.open
	if key == "" {
		s.mu.Unlock()
		return
	}
	s.logs[key] = append(s.logs[key], msg)
	if p, ok := s.peers[key]; ok {
		p.LastMessage = msg.Text
		p.LastMessageTime = msg.Timestamp
	}
	s.mu.Unlock()

	s.emit(EventMessage, key)
	s.emit(EventPreview, key)
}

// MarkDelivered flips the delivered flag on a message previously appended
// with AppendOutbound, identified by its client-generated id.
func (s *Store) MarkDelivered(msgID string) {
	s.mu.Lock()
	var touched string
	for key, log := range s.logs {
		for i := range log {
			if log[i].ID == msgID {
				log[i].Delivered = true
				touched = key
			}
		}
	}
	s.mu.Unlock()

	if touched != "" {
		s.emit(EventMessage, touched)
	}
}

// ResetUnread zeroes a peer's unread counter. Unknown peers are a no-op.
func (s *Store) ResetUnread(peerID string) {
	key := wire.NormalizeID(peerID)
	s.mu.Lock()
	p, ok := s.peers[key]
	if ok {
		p.Unread = 0
	}
	s.mu.Unlock()
	if ok {
		s.emit(EventPreview, key)
	}
}

// Unread returns a peer's unread count. The open peer always reads 0.
func (s *Store) Unread(peerID string) int {
	key := wire.NormalizeID(peerID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.open {
		return 0
	}
	if p, ok := s.peers[key]; ok {
		return p.Unread
	}
	return 0
}

// Peers returns the roster in display order.
func (s *Store) Peers() []Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Peer, 0, len(s.order))
	for _, key := range s.order {
		p := *s.peers[key]
		if key == s.open {
			p.Unread = 0
		}
		out = append(out, p)
	}
	return out
}

// Peer returns a single roster entry by id.
func (s *Store) Peer(peerID string) (Peer, bool) {
	key := wire.NormalizeID(peerID)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[key]
	if !ok {
		return Peer{}, false
	}
	out := *p
	if key == s.open {
		out.Unread = 0
	}
	return out, true
}

// OpenPeer returns the normalized id of the open conversation, "" if none.
func (s *Store) OpenPeer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Messages returns a copy of the open conversation's log.
func (s *Store) Messages() []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open == "" {
		return nil
	}
	return append([]wire.Message(nil), s.logs[s.open]...)
}

// Self returns the normalized id of the current user.
func (s *Store) Self() string {
	return s.self
}

// Reset clears all conversation state. Used on logout teardown.
func (s *Store) Reset() {
	s.mu.Lock()
	s.peers = make(map[string]*Peer)
	s.order = nil
	s.logs = make(map[string][]wire.Message)
	s.opened = make(map[string]bool)
	s.open = ""
	s.gen++
	s.mu.Unlock()
	s.emit(EventRoster, nil)
	s.emit(EventOpen, "")
}

// attribute picks the conversation key for an inbound message: the party
// that is not the current user. When neither side matches the current user
// the sender wins, so a misaddressed payload still lands somewhere visible.
func (s *Store) attribute(msg wire.Message) (key, name, role string) {
	sender := wire.NormalizeID(msg.Sender.ID)
	receiver := wire.NormalizeID(msg.Receiver.ID)
	if sender == s.self {
		return receiver, msg.Receiver.Name, msg.Receiver.Role
	}
	return sender, msg.Sender.Name, msg.Sender.Role
}

// ensurePeerLocked creates a roster entry on demand; a socket event may
// mention a peer before the roster fetch has resolved.
func (s *Store) ensurePeerLocked(key, name, role string) {
	if _, ok := s.peers[key]; ok {
		return
	}
	if name == "" {
		name = wire.DefaultName
	}
	if role == "" {
		role = wire.DefaultRole
	}
	s.peers[key] = &Peer{ID: key, Name: name, Role: role}
	s.order = append(s.order, key)
	if s.logger != nil {
		s.logger.Debug("peer created on demand", zap.String("peer", key))
	}
}

func (s *Store) emit(kind string, payload any) {
	if s.bus != nil {
		s.bus.Emit(kind, payload)
	}
}
