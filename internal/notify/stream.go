// Package notify carries asynchronous outcomes from the intent engine to the
// user-visible layer. Errors never cross that boundary as panics; they arrive
// here as events.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an event for presentation.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// DefaultTTL is the display window after which an event expires on its own.
const DefaultTTL = 5 * time.Second

// Event is one user-visible status message.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Stream is an append-only, creation-ordered event log. Each event schedules
// its own expiry; dismissing one never affects its siblings, and dismissing
// an already-gone id is a no-op.
type Stream struct {
	mu     sync.Mutex
	ttl    time.Duration
	events []Event
	timers map[string]*time.Timer
	closed bool
}

func NewStream(ttl time.Duration) *Stream {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Stream{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Push appends an event and returns its id.
func (s *Stream) Push(kind Kind, message string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ""
	}

	ev := Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	}
	s.events = append(s.events, ev)
	s.timers[ev.ID] = time.AfterFunc(s.ttl, func() { s.Dismiss(ev.ID) })
	return ev.ID
}

// Dismiss removes an event. Removing an unknown or already-removed id is a
// no-op.
func (s *Stream) Dismiss(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
	for i, ev := range s.events {
		if ev.ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return
		}
	}
}

// Events returns a snapshot of live events in creation order.
func (s *Stream) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Close stops all expiry timers and rejects further pushes.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.events = nil
}
