package quiz

import (
	"context"
	"sync"
)

// FetchGuard discards question fetches that were superseded. Each Begin
// cancels the previous fetch's context, and Accept only admits the
// result of the most recent Begin for the same selector.
type FetchGuard struct {
	mu       sync.Mutex
	seq      uint64
	selector string
	cancel   context.CancelFunc
	accepted bool
}

// Ticket identifies one fetch.
type Ticket struct {
	seq      uint64
	Selector string
}

// Begin starts a fetch for selector and returns its context and ticket.
func (g *FetchGuard) Begin(ctx context.Context, selector string) (context.Context, Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	g.seq++
	g.selector = selector
	g.cancel = cancel
	g.accepted = false
	return fctx, Ticket{seq: g.seq, Selector: selector}
}

// Accept reports whether t is still the latest fetch. A true result
// consumes the ticket, so a result is accepted at most once.
func (g *FetchGuard) Accept(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if t.seq != g.seq || t.Selector != g.selector || g.accepted {
		return false
	}
	g.accepted = true
	return true
}

// Commit runs fn while holding the guard, but only if t is still the
// latest fetch, and reports whether fn ran. A Begin or Cancel racing with
// Commit either supersedes t first or waits for fn to finish.
func (g *FetchGuard) Commit(t Ticket, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if t.seq != g.seq || t.Selector != g.selector {
		return false
	}
	fn()
	return true
}

// Cancel aborts any fetch in flight.
func (g *FetchGuard) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.seq++
	g.selector = ""
}
