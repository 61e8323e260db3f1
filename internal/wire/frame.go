package wire

import "encoding/json"

// Socket event names, inbound and outbound. The server reuses "typing" and
// "stopTyping" in both directions.
const (
	EventUserOnline     = "userOnline"
	EventUserOffline    = "userOffline"
	EventReceiveMessage = "receiveMessage"
	EventTyping         = "typing"
	EventStopTyping     = "stopTyping"
	EventSendMessage    = "sendMessage"
	EventReadMessages   = "readMessages"
)

// Frame is the envelope for every socket event in either direction.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame builds an outbound frame, marshalling the payload. A payload that
// fails to marshal produces a frame with empty data rather than an error;
// every outbound payload type in this package is marshal-safe.
func NewFrame(event string, payload any) Frame {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{Event: event}
	}
	return Frame{Event: event, Data: data}
}

// DecodeData unmarshals the frame payload into a generic JSON value,
// returning nil when the payload is absent or malformed. Callers feed the
// result to the normalizers, which tolerate nil.
func (f Frame) DecodeData() any {
	if len(f.Data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(f.Data, &v); err != nil {
		return nil
	}
	return v
}

// TypingSignal is the payload for typing/stopTyping in both directions:
// "from" identifies the typist inbound, "to" addresses the peer outbound.
type TypingSignal struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// SendPayload is the outbound sendMessage payload.
type SendPayload struct {
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}
