package query

import "sync/atomic"

// Guard suppresses stale results: starting a new request supersedes every
// earlier one. Superseded work is not cancelled, its result is dropped.
type Guard struct {
	seq atomic.Uint64
}

// Ticket identifies one request started on a Guard.
type Ticket struct {
	g  *Guard
	id uint64
}

// Begin starts a request and supersedes all earlier tickets.
func (g *Guard) Begin() Ticket {
	return Ticket{g: g, id: g.seq.Add(1)}
}

// Current reports whether no newer request has started since t.
func (t Ticket) Current() bool {
	return t.g != nil && t.g.seq.Load() == t.id
}
