package poll

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Token identifies a registered event source within a Poller. Tokens are
// chosen by the caller and must be unique per poller.
type Token int

// Interest describes which readiness classes a registration cares about.
// Event sources in this package are receive-only, so Readable is the only
// defined interest.
type Interest uint8

const (
	// Readable indicates interest in "there is something to receive".
	Readable Interest = 1 << 0
)

// Trigger selects the wake semantics for a registration.
type Trigger uint8

const (
	// Edge delivers a token once per not-ready to ready transition.
	// The consumer must drain the source fully before relying on the
	// next wake.
	Edge Trigger = iota

	// Level redelivers a token on every Wait while the source's flag
	// remains set.
	Level
)

// registration records one Readiness bound to a token.
type registration struct {
	r        *Readiness
	interest Interest
	trigger  Trigger
}

// Poller is a reference reactor for readiness-based event sources.
//
// It is not an OS poller: it multiplexes Readiness flags, not file
// descriptors. Its registration and wait contract is shaped like a standard
// readiness API so that sources written against it can sit alongside any
// other reactor the application already runs.
type Poller struct {
	mu sync.Mutex

	// regs maps live tokens to their registrations.
	regs map[Token]*registration

	// tokens maps a registered readiness back to its token.
	tokens map[*Readiness]Token

	// pending holds tokens with an undelivered edge wake.
	pending map[Token]struct{}

	// wakec is signalled (capacity 1) whenever pending gains a token.
	wakec chan struct{}
}

// NewPoller creates an empty poller.
func NewPoller() *Poller {
	return &Poller{
		regs:    make(map[Token]*registration),
		tokens:  make(map[*Readiness]Token),
		pending: make(map[Token]struct{}),
		wakec:   make(chan struct{}, 1),
	}
}

// Register adds a readiness under the given token.
//
// Returns ErrAlreadyRegistered if the readiness is already registered with
// a poller, and ErrTokenInUse if the token is taken. If the readiness is
// already set at registration time, a wake is queued immediately so no
// prior Set is lost.
func (p *Poller) Register(r *Readiness, tok Token, interest Interest, trigger Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.poller != nil {
		return ErrAlreadyRegistered
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.regs[tok]; exists {
		return ErrTokenInUse
	}

	p.regs[tok] = &registration{r: r, interest: interest, trigger: trigger}
	p.tokens[r] = tok
	r.bindLocked(p, tok)

	if r.ready.Load() && interest&Readable != 0 {
		p.pending[tok] = struct{}{}
		p.signal()
	}

	return nil
}

// Reregister changes the token, interest, or trigger of an existing
// registration. Returns ErrNotRegistered if the readiness is not registered
// with this poller, and ErrTokenInUse if the new token is taken by another
// registration.
func (p *Poller) Reregister(r *Readiness, tok Token, interest Interest, trigger Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.poller != p {
		return ErrNotRegistered
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.tokens[r]
	if tok != old {
		if _, exists := p.regs[tok]; exists {
			return ErrTokenInUse
		}
		delete(p.regs, old)
		delete(p.pending, old)
	}

	p.regs[tok] = &registration{r: r, interest: interest, trigger: trigger}
	p.tokens[r] = tok
	r.bindLocked(p, tok)

	if r.ready.Load() && interest&Readable != 0 {
		p.pending[tok] = struct{}{}
		p.signal()
	}

	return nil
}

// Deregister removes a readiness from the poller. Pending wakes for its
// token are discarded. Returns ErrNotRegistered if the readiness is not
// registered with this poller.
func (p *Poller) Deregister(r *Readiness) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.poller != p {
		return ErrNotRegistered
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tok := p.tokens[r]
	delete(p.regs, tok)
	delete(p.tokens, r)
	delete(p.pending, tok)
	r.unbindLocked()

	return nil
}

// Wait blocks until at least one registered source is ready or the timeout
// elapses. A negative timeout blocks indefinitely; a zero timeout performs a
// single non-blocking check.
//
// The returned tokens are sorted and deduplicated. On timeout Wait returns
// ErrTimeout and no tokens.
func (p *Poller) Wait(timeout time.Duration) ([]Token, error) {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		if toks := p.collect(); len(toks) > 0 {
			return toks, nil
		}

		select {
		case <-p.wakec:
			// Re-collect; the wake may already be consumed by a
			// previous Wait on another goroutine.
		case <-deadline:
			return nil, ErrTimeout
		}
	}
}

// collect gathers and consumes pending edge wakes, plus every level
// registration whose flag is still set.
func (p *Poller) collect() []Token {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[Token]struct{}, len(p.pending))
	for tok := range p.pending {
		delete(p.pending, tok)
		seen[tok] = struct{}{}
	}

	for tok, reg := range p.regs {
		if reg.trigger != Level || reg.interest&Readable == 0 {
			continue
		}
		if reg.r.ready.Load() {
			seen[tok] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	toks := make([]Token, 0, len(seen))
	for tok := range seen {
		toks = append(toks, tok)
	}
	sort.Slice(toks, func(i, j int) bool { return toks[i] < toks[j] })
	return toks
}

// wake records an edge wake for tok and signals any blocked Wait.
// Called by Readiness.Set; tok is ignored if no longer registered.
func (p *Poller) wake(tok Token) {
	p.mu.Lock()
	reg, ok := p.regs[tok]
	if ok && reg.interest&Readable != 0 {
		p.pending[tok] = struct{}{}
	}
	p.mu.Unlock()

	if ok {
		p.signal()
	}
}

// signal nudges wakec without blocking.
func (p *Poller) signal() {
	select {
	case p.wakec <- struct{}{}:
	default:
	}
}

// Sentinel errors for the poll package.
var (
	// ErrAlreadyRegistered is returned when registering a readiness that
	// is already registered with a poller.
	ErrAlreadyRegistered = fmt.Errorf("readiness already registered")

	// ErrNotRegistered is returned by Reregister and Deregister when the
	// readiness is not registered with this poller.
	ErrNotRegistered = fmt.Errorf("readiness not registered")

	// ErrTokenInUse is returned when a token is already bound to another
	// registration.
	ErrTokenInUse = fmt.Errorf("token already in use")

	// ErrTimeout is returned by Wait when the timeout elapses with no
	// source ready.
	ErrTimeout = fmt.Errorf("poll wait timed out")
)
