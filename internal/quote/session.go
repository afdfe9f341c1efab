package quote

import "sync"

// Ticket identifies one quote request within a Session.
type Ticket uint64

// Session serializes quote display updates for one input field. Every input
// change begins a new ticket; a fetch that resolves after its ticket was
// superseded commits nothing, so the display can never show a quote for an
// amount the user is no longer entering.
type Session struct {
	mu        sync.Mutex
	seq       Ticket
	latest    Quote
	committed bool
}

// Begin registers a new input value and invalidates all earlier tickets.
func (s *Session) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.committed = false
	return s.seq
}

// Commit installs the quote if the ticket is still current. It reports
// whether the quote was accepted.
func (s *Session) Commit(t Ticket, q Quote) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.seq {
		return false
	}
	s.latest = q
	s.committed = true
	return true
}

// Latest returns the most recently committed quote for the current ticket.
func (s *Session) Latest() (Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.committed
}
