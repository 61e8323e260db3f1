package rt

import (
	"encoding/json"

	"github.com/codecommunity/cchat/internal/presence"
	"github.com/codecommunity/cchat/internal/store"
	"github.com/codecommunity/cchat/internal/wire"
	"go.uber.org/zap"
)

// Dispatcher routes inbound frames into the conversation store and the
// presence tracker. Every payload passes through the normalizers, so a
// malformed frame degrades to defaults instead of failing.
type Dispatcher struct {
	store    *store.Store
	presence *presence.Tracker
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over the given stores.
func NewDispatcher(s *store.Store, p *presence.Tracker, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{store: s, presence: p, logger: logger}
}

// Dispatch handles one inbound frame. Unknown events are logged and dropped.
func (d *Dispatcher) Dispatch(f wire.Frame) {
	switch f.Event {
	case wire.EventUserOnline:
		d.presence.MarkOnline(wire.NormalizeID(f.DecodeData()))

	case wire.EventUserOffline:
		d.presence.MarkOffline(wire.NormalizeID(f.DecodeData()))

	case wire.EventReceiveMessage:
		msg := wire.NormalizeMessage(f.DecodeData())
		d.store.AppendInbound(msg)

	case wire.EventTyping:
		d.presence.SetTyping(d.typist(f), true)

	case wire.EventStopTyping:
		d.presence.SetTyping(d.typist(f), false)

	default:
		d.logger.Debug("unhandled event", zap.String("event", f.Event))
	}
}

// typist extracts the sender of a typing signal. The gateway sends
// {"from": id}, but some deployments emit the bare id.
func (d *Dispatcher) typist(f wire.Frame) string {
	var sig wire.TypingSignal
	if err := json.Unmarshal(f.Data, &sig); err == nil && sig.From != "" {
		return sig.From
	}
	return wire.NormalizeID(f.DecodeData())
}
