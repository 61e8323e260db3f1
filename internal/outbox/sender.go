package outbox

import (
	"context"
	"time"

	"github.com/codecommunity/cchat/internal/bus"
	"github.com/codecommunity/cchat/internal/status"
	"github.com/codecommunity/cchat/internal/store"
	"go.uber.org/zap"
)

// Bus event kinds published by the sender.
const (
	EventSent   = "outbox.sent"
	EventFailed = "outbox.failed"
)

// TextSender is the transport surface the sender drains into.
type TextSender interface {
	SendMessage(peerID, text string) error
}

// Sender drains the queue over the realtime session whenever it is
// connected. A successful transport write is the delivery acknowledgement:
// the entry is removed and the optimistic message marked delivered. Failures
// requeue for the next pass.
type Sender struct {
	queue   *Queue
	sender  TextSender
	machine *status.Machine
	store   *store.Store
	bus     *bus.Bus
	logger  *zap.Logger

	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSender creates an outbox sender polling at the given interval
// (500ms when zero).
func NewSender(q *Queue, ts TextSender, m *status.Machine, s *store.Store, b *bus.Bus, logger *zap.Logger, interval time.Duration) *Sender {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Sender{
		queue:    q,
		sender:   ts,
		machine:  m,
		store:    s,
		bus:      b,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the drain loop.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx)
}

// Stop stops the drain loop and waits for it to exit.
func (s *Sender) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Sender) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.drain()
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) drain() {
	if s.machine.Current() != status.Connected {
		return
	}

	for _, entry := range s.queue.Pending() {
		if err := s.sender.SendMessage(entry.PeerID, entry.Text); err != nil {
			s.logger.Warn("send failed, requeued",
				zap.String("client_msg_id", entry.ClientMsgID),
				zap.Int("attempts", entry.Attempts+1),
				zap.Error(err))
			s.queue.Requeue(entry.ClientMsgID, err.Error())
			s.emit(EventFailed, entry.ClientMsgID)
			continue
		}

		s.queue.Ack(entry.ClientMsgID)
		s.store.MarkDelivered(entry.ClientMsgID)
		s.logger.Info("message sent", zap.String("client_msg_id", entry.ClientMsgID))
		s.emit(EventSent, entry.ClientMsgID)
	}
}

func (s *Sender) emit(kind string, payload any) {
	if s.bus != nil {
		s.bus.Emit(kind, payload)
	}
}
