package wire

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad test payload: %v", err)
	}
	return v
}

func TestNormalizeMessageBareSender(t *testing.T) {
	msg := NormalizeMessage(decode(t, `{"sender":"u1","text":"hi","createdAt":"2024-01-01T00:00:00Z"}`))

	if msg.Sender.ID != "u1" {
		t.Errorf("Sender.ID = %q, want u1", msg.Sender.ID)
	}
	if msg.Sender.Name != "User" {
		t.Errorf("Sender.Name = %q, want User", msg.Sender.Name)
	}
	if msg.Sender.Role != "client" {
		t.Errorf("Sender.Role = %q, want client", msg.Sender.Role)
	}
	if msg.Text != "hi" {
		t.Errorf("Text = %q, want hi", msg.Text)
	}
	if msg.Timestamp != "2024-01-01T00:00:00Z" {
		t.Errorf("Timestamp = %q, want createdAt fallback", msg.Timestamp)
	}
	if msg.Delivered || msg.Read {
		t.Error("delivered/read should default to false")
	}
}

func TestNormalizeMessageObjectParties(t *testing.T) {
	raw := `{
		"_id": "m1",
		"sender": {"_id": "u1", "name": "Alice", "role": "developer"},
		"receiver": {"id": "u2", "name": "Bob"},
		"message": "hello",
		"timestamp": "2024-02-02T10:00:00Z",
		"delivered": true,
		"read": true
	}`
	msg := NormalizeMessage(decode(t, raw))

	if msg.ID != "m1" {
		t.Errorf("ID = %q, want m1", msg.ID)
	}
	if msg.Sender != (Party{ID: "u1", Name: "Alice", Role: "developer"}) {
		t.Errorf("Sender = %+v", msg.Sender)
	}
	if msg.Receiver != (Party{ID: "u2", Name: "Bob", Role: "client"}) {
		t.Errorf("Receiver = %+v", msg.Receiver)
	}
	if !msg.Delivered || !msg.Read {
		t.Error("delivered/read flags lost")
	}
}

func TestNormalizeMessageFieldFallbacks(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantSender   string
		wantReceiver string
		wantText     string
	}{
		{"from/to", `{"from":"a","to":"b","text":"x"}`, "a", "b", "x"},
		{"userId", `{"userId":"a","message":"y"}`, "a", "unknown", "y"},
		{"message wins over text", `{"sender":"a","message":"m","text":"t"}`, "a", "unknown", "m"},
		{"senderName", `{"sender":"a","senderName":"Ann","text":"z"}`, "a", "unknown", "z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NormalizeMessage(decode(t, tt.raw))
			if msg.Sender.ID != tt.wantSender {
				t.Errorf("Sender.ID = %q, want %q", msg.Sender.ID, tt.wantSender)
			}
			if msg.Receiver.ID != tt.wantReceiver {
				t.Errorf("Receiver.ID = %q, want %q", msg.Receiver.ID, tt.wantReceiver)
			}
			if msg.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", msg.Text, tt.wantText)
			}
		})
	}
}

// NormalizeMessage must be total: any JSON value, including nil and {},
// yields populated parties and non-empty id/timestamp.
func TestNormalizeMessageTotal(t *testing.T) {
	inputs := []any{
		nil,
		map[string]any{},
		"not an object",
		float64(5),
		[]any{"a"},
		map[string]any{"sender": []any{"weird"}},
		map[string]any{"sender": map[string]any{}},
		map[string]any{"delivered": "yes", "read": float64(1)},
	}

	for _, in := range inputs {
		msg := NormalizeMessage(in)
		if msg.ID == "" || msg.Timestamp == "" {
			t.Errorf("input %v: id/timestamp not synthesized: %+v", in, msg)
		}
		for _, p := range []Party{msg.Sender, msg.Receiver} {
			if p.ID == "" || p.Name == "" || p.Role == "" {
				t.Errorf("input %v: unpopulated party %+v", in, p)
			}
		}
		if msg.Delivered || msg.Read {
			t.Errorf("input %v: non-bool flags must default false", in)
		}
	}
}

func TestFrameRoundTrip(t *testing.T) {
	f := NewFrame(EventSendMessage, SendPayload{Receiver: "u2", Message: "hey"})

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	var got Frame
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Event != EventSendMessage {
		t.Errorf("Event = %q", got.Event)
	}
	payload, ok := got.DecodeData().(map[string]any)
	if !ok {
		t.Fatalf("DecodeData() = %T", got.DecodeData())
	}
	if payload["receiver"] != "u2" || payload["message"] != "hey" {
		t.Errorf("payload = %v", payload)
	}
}

func TestFrameDecodeDataMalformed(t *testing.T) {
	f := Frame{Event: EventTyping, Data: []byte(`{nope`)}
	if f.DecodeData() != nil {
		t.Error("malformed data should decode to nil")
	}
	if (Frame{}).DecodeData() != nil {
		t.Error("empty data should decode to nil")
	}
}
