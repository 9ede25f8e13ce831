// Package hub fans progress events out to every channel subscribed to a
// browser session.
package hub

import "sync"

// Upload progress statuses. Each item sees any number of checking and
// uploading events followed by exactly one terminal status.
const (
	StatusChecking  = "checking"
	StatusUploading = "uploading"
	StatusDone      = "done"
	StatusDuplicate = "duplicate"
	StatusError     = "error"
)

// Event is one progress update for one in-flight item.
type Event struct {
	ItemID     string `json:"item_id"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Message    string `json:"message,omitempty"`
	ResponseID string `json:"response_id,omitempty"`
}

// Channel is one subscriber transport. Implementations must tolerate
// Send after Close.
type Channel interface {
	Send(Event) error
	Close() error
}

// Hub routes events to the channels of a session. Zero value not
// usable; call New.
type Hub struct {
	mu       sync.Mutex
	sessions map[string][]Channel
}

// New returns an empty hub.
func New() *Hub {
	return &Hub{sessions: make(map[string][]Channel)}
}

// Subscribe registers ch under sessionID and reports whether this is
// the first channel the session ever registered.
func (h *Hub) Subscribe(sessionID string, ch Channel) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, existed := h.sessions[sessionID]
	h.sessions[sessionID] = append(h.sessions[sessionID], ch)
	return !existed
}

// Unsubscribe removes ch from sessionID. Empty sessions are pruned.
func (h *Hub) Unsubscribe(sessionID string, ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	chans := h.sessions[sessionID]
	for i, c := range chans {
		if c == ch {
			chans = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(chans) == 0 {
		delete(h.sessions, sessionID)
	} else {
		h.sessions[sessionID] = chans
	}
}

// Publish delivers ev to every channel of sessionID. The subscriber
// list is snapshotted under the lock and delivery happens outside it,
// so a slow channel never blocks registration. A channel whose Send
// fails is closed and dropped; its siblings still get the event.
func (h *Hub) Publish(sessionID string, ev Event) {
	h.mu.Lock()
	chans := make([]Channel, len(h.sessions[sessionID]))
	copy(chans, h.sessions[sessionID])
	h.mu.Unlock()

	for _, ch := range chans {
		if err := ch.Send(ev); err != nil {
			ch.Close()
			h.Unsubscribe(sessionID, ch)
		}
	}
}

// Sessions reports the number of live sessions.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Default is the process-wide hub.
var Default = New()
