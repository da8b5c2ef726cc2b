package console

import "sync/atomic"

// Ticket identifies one issued load. Tickets grow monotonically.
type Ticket uint64

// Sequencer hands out load tickets shared by the query coordinator and every
// resynchronization, so only the most recently issued load reaches the store.
type Sequencer struct {
	last atomic.Uint64
}

// Next issues a new ticket, superseding every earlier one.
func (s *Sequencer) Next() Ticket {
	return Ticket(s.last.Add(1))
}

// IsLatest reports whether t is still the most recently issued ticket.
func (s *Sequencer) IsLatest(t Ticket) bool {
	return uint64(t) == s.last.Load()
}
