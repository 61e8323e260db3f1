// Package outbox queues outgoing messages so nothing typed while the session
// is down gets dropped. Entries leave the queue only on a transport
// acknowledgement; failures stay queued and are retried.
package outbox

import "sync"

// Entry is one outgoing message, keyed by its client-generated id (the same
// id the optimistic store append uses).
type Entry struct {
	ClientMsgID string
	PeerID      string
	Text        string
	Attempts    int
	LastError   string
}

// Queue is an in-memory FIFO of pending messages.
type Queue struct {
	mu       sync.Mutex
	entries  []Entry
	inFlight map[string]bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{inFlight: make(map[string]bool)}
}

// Enqueue appends an outgoing message. Duplicate client ids are ignored.
func (q *Queue) Enqueue(e Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, existing := range q.entries {
		if existing.ClientMsgID == e.ClientMsgID {
			return
		}
	}
	q.entries = append(q.entries, e)
}

// Pending returns entries awaiting a send attempt, oldest first, marking
// them in flight so a concurrent drain cannot double-send.
func (q *Queue) Pending() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Entry
	for _, e := range q.entries {
		if !q.inFlight[e.ClientMsgID] {
			q.inFlight[e.ClientMsgID] = true
			out = append(out, e)
		}
	}
	return out
}

// Ack removes an acknowledged entry. Returns false for unknown ids.
func (q *Queue) Ack(clientMsgID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inFlight, clientMsgID)
	for i, e := range q.entries {
		if e.ClientMsgID == clientMsgID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Requeue records a failed attempt and makes the entry eligible again.
func (q *Queue) Requeue(clientMsgID, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inFlight, clientMsgID)
	for i := range q.entries {
		if q.entries[i].ClientMsgID == clientMsgID {
			q.entries[i].Attempts++
			q.entries[i].LastError = errMsg
			return
		}
	}
}

// Len reports how many entries are queued, in flight included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Reset drops all entries. Used on session teardown.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
	q.inFlight = make(map[string]bool)
}
