package wire

import (
	"strconv"
	"time"
)

// Default values used when a payload omits a field entirely.
const (
	DefaultName = "User"
	DefaultRole = "client"

	// UnknownID marks a party that could not be attributed at all. It is a
	// display-layer fallback, never a routing key.
	UnknownID = "unknown"
)

// Party is one side of a message, always fully populated after normalization.
type Party struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Message is the canonical message record. Immutable once normalized.
// Timestamps stay in the server's string form (RFC 3339); logs are ordered by
// arrival, so no parsing is needed.
type Message struct {
	ID        string `json:"_id"`
	Sender    Party  `json:"sender"`
	Receiver  Party  `json:"receiver"`
	Text      string `json:"message"`
	Timestamp string `json:"timestamp"`
	Delivered bool   `json:"delivered"`
	Read      bool   `json:"read"`
}

// NormalizeMessage maps any JSON-shaped payload into a canonical Message.
// It is total: any input, including nil and {}, yields a record with fully
// populated sender and receiver. Observed shape variants it must absorb:
//
//   - sender/receiver as a bare id string or as {_id|id, name?, role?}
//   - "text" as a fallback for "message"
//   - "from"/"to"/"userId" as fallbacks for "sender"/"receiver"
//   - "createdAt" as a fallback for "timestamp"
//   - absent delivered/read flags
//
// A missing message id is synthesized from the clock; such ids are only used
// for display keying, never sent back to the server.
func NormalizeMessage(raw any) Message {
	m, _ := raw.(map[string]any)

	msg := Message{
		ID:        firstString(m, "_id", "id"),
		Sender:    normalizeParty(m, "sender", []string{"from", "userId"}, "senderName"),
		Receiver:  normalizeParty(m, "receiver", []string{"to"}, "receiverName"),
		Text:      firstString(m, "message", "text"),
		Timestamp: firstString(m, "timestamp", "createdAt"),
		Delivered: boolField(m, "delivered"),
		Read:      boolField(m, "read"),
	}

	if msg.ID == "" {
		msg.ID = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return msg
}

// normalizeParty extracts one side of the message. The primary key may hold
// an object or a bare id; the fallback keys only ever hold bare ids.
func normalizeParty(m map[string]any, key string, fallbacks []string, nameKey string) Party {
	p := Party{Name: DefaultName, Role: DefaultRole}

	if obj, ok := m[key].(map[string]any); ok {
		if id, ok := obj["_id"]; ok && id != nil {
			p.ID = stringify(id)
		} else if id, ok := obj["id"]; ok && id != nil {
			p.ID = stringify(id)
		}
		if name, ok := obj["name"].(string); ok && name != "" {
			p.Name = name
		}
		if role, ok := obj["role"].(string); ok && role != "" {
			p.Role = role
		}
		if p.ID == "" {
			p.ID = UnknownID
		}
		return p
	}

	if v, ok := m[key]; ok && v != nil {
		p.ID = stringify(v)
	} else {
		for _, fb := range fallbacks {
			if v, ok := m[fb]; ok && v != nil {
				p.ID = stringify(v)
				break
			}
		}
	}
	if p.ID == "" {
		p.ID = UnknownID
	}
	if name, ok := m[nameKey].(string); ok && name != "" {
		p.Name = name
	} else if key == "sender" {
		// Some payloads carry the sender's display name at the top level.
		if name, ok := m["name"].(string); ok && name != "" {
			p.Name = name
		}
	}
	return p
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
