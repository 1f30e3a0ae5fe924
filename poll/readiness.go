package poll

import (
	"sync"
	"sync/atomic"
)

// Readiness is a shared flag that marks an event source as having work
// available. Producers call Set after making work available; the consumer
// calls Clear once it has drained the source.
//
// A Readiness may be registered with at most one Poller at a time. While
// registered, a not-ready to ready transition wakes the poller.
type Readiness struct {
	// ready is the current flag state.
	ready atomic.Bool

	// mu protects the registration binding below.
	mu sync.Mutex

	// poller is the reactor this readiness is registered with, or nil.
	poller *Poller

	// token identifies this readiness inside the poller.
	token Token
}

// NewReadiness creates a new readiness flag in the not-ready state.
func NewReadiness() *Readiness {
	return &Readiness{}
}

// Set marks the source ready. If the flag was previously clear and the
// readiness is registered with a poller, the poller is woken.
//
// Set is safe to call concurrently from multiple producer goroutines;
// redundant calls while the flag is already set are cheap no-ops.
func (r *Readiness) Set() {
	if r.ready.Swap(true) {
		// Already ready: a wake is pending or the consumer has not
		// drained yet. Edge contract says no second wake.
		return
	}

	r.mu.Lock()
	p, tok := r.poller, r.token
	r.mu.Unlock()

	if p != nil {
		p.wake(tok)
	}
}

// Clear marks the source not ready. The consumer calls this after observing
// the source empty, re-arming the next Set for an edge wake.
func (r *Readiness) Clear() {
	r.ready.Store(false)
}

// IsSet reports whether the flag is currently set.
func (r *Readiness) IsSet() bool {
	return r.ready.Load()
}

// bind attaches this readiness to a poller. Caller must hold r.mu.
func (r *Readiness) bindLocked(p *Poller, tok Token) {
	r.poller = p
	r.token = tok
}

// unbind detaches this readiness. Caller must hold r.mu.
func (r *Readiness) unbindLocked() {
	r.poller = nil
	r.token = 0
}
