package presence

import (
	"sync"
	"time"
)

// DefaultQuiet is how long after the last keystroke the stop-typing intent
// fires.
const DefaultQuiet = time.Second

// Debouncer turns a stream of local keystrokes into typing/stop-typing
// intents: every keystroke emits a typing intent and re-arms a single
// stop-typing timer measured from the most recent keystroke.
type Debouncer struct {
	mu      sync.Mutex
	quiet   time.Duration
	timer   *time.Timer
	seq     uint64 // identifies the latest armed timer
	peer    string
	onStart func(peerID string)
	onStop  func(peerID string)
}

// NewDebouncer creates a debouncer with the given quiet interval (DefaultQuiet
// when zero) and intent callbacks. Callbacks run on their own goroutine when
// fired by the timer, and inline from Keystroke and Flush.
func NewDebouncer(quiet time.Duration, onStart, onStop func(peerID string)) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Debouncer{quiet: quiet, onStart: onStart, onStop: onStop}
}

// Keystroke signals local input addressed to peerID: emits a typing intent
// and schedules the stop-typing intent, cancelling any earlier schedule.
// Switching peers mid-stream stops typing to the previous peer first.
func (d *Debouncer) Keystroke(peerID string) {
	if peerID == "" {
		return
	}
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	prev := d.peer
	d.peer = peerID
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.quiet, func() { d.expire(peerID, seq) })
	d.mu.Unlock()

	if prev != "" && prev != peerID && d.onStop != nil {
		d.onStop(prev)
	}
	if d.onStart != nil {
		d.onStart(peerID)
	}
}

// Flush emits the stop-typing intent immediately, cancelling the pending
// timer. Called when a message is sent.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	peer := d.peer
	pending := d.timer != nil
	if pending {
		d.timer.Stop()
	}
	d.timer = nil
	d.peer = ""
	d.mu.Unlock()

	if pending && peer != "" && d.onStop != nil {
		d.onStop(peer)
	}
}

// Cancel drops any pending timer without emitting. Called on teardown so no
// timer outlives the session.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = nil
	d.peer = ""
	d.mu.Unlock()
}

func (d *Debouncer) expire(peerID string, seq uint64) {
	d.mu.Lock()
	// A keystroke may have re-armed the timer between firing and locking.
	if seq != d.seq || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.peer = ""
	d.mu.Unlock()

	if d.onStop != nil {
		d.onStop(peerID)
	}
}
