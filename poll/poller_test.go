package poll

import (
	"testing"
	"time"
)

func TestReadinessSetClear(t *testing.T) {
	r := NewReadiness()

	if r.IsSet() {
		t.Error("expected new readiness to be clear")
	}

	r.Set()
	if !r.IsSet() {
		t.Error("expected readiness to be set after Set")
	}

	// Redundant Set is a no-op, not an error.
	r.Set()
	if !r.IsSet() {
		t.Error("expected readiness to remain set")
	}

	r.Clear()
	if r.IsSet() {
		t.Error("expected readiness to be clear after Clear")
	}
}

func TestPollerRegisterDuplicateReadiness(t *testing.T) {
	p := NewPoller()
	r := NewReadiness()

	if err := p.Register(r, Token(1), Readable, Edge); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if err := p.Register(r, Token(2), Readable, Edge); err != ErrAlreadyRegistered {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}

	// Registering with a second poller is also rejected.
	p2 := NewPoller()
	if err := p2.Register(r, Token(1), Readable, Edge); err != ErrAlreadyRegistered {
		t.Errorf("expected ErrAlreadyRegistered for second poller, got %v", err)
	}
}

func TestPollerRegisterTokenInUse(t *testing.T) {
	p := NewPoller()

	if err := p.Register(NewReadiness(), Token(7), Readable, Edge); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := p.Register(NewReadiness(), Token(7), Readable, Edge); err != ErrTokenInUse {
		t.Errorf("expected ErrTokenInUse, got %v", err)
	}
}

func TestPollerWaitTimeout(t *testing.T) {
	p := NewPoller()
	if err := p.Register(NewReadiness(), Token(1), Readable, Edge); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	toks, err := p.Wait(50 * time.Millisecond)
	if err != ErrTimeout {
		t.Errorf("expected ErrTimeout, got tokens %v, err %v", toks, err)
	}
}

func TestPollerEdgeWake(t *testing.T) {
	p := NewPoller()
	r := NewReadiness()
	tok := Token(3)

	if err := p.Register(r, tok, Readable, Edge); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	go r.Set()

	toks, err := p.Wait(2 * time.Second)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if len(toks) != 1 || toks[0] != tok {
		t.Fatalf("expected [%d], got %v", tok, toks)
	}

	// No transition since the wake: no redelivery in edge mode.
	if _, err := p.Wait(50 * time.Millisecond); err != ErrTimeout {
		t.Errorf("expected ErrTimeout without a new transition, got %v", err)
	}

	// Setting while still set is not a transition either.
	r.Set()
	if _, err := p.Wait(50 * time.Millisecond); err != ErrTimeout {
		t.Errorf("expected ErrTimeout for redundant Set, got %v", err)
	}

	// Clear then Set is a fresh transition.
	r.Clear()
	r.Set()
	toks, err = p.Wait(2 * time.Second)
	if err != nil {
		t.Fatalf("wait after re-arm failed: %v", err)
	}
	if len(toks) != 1 || toks[0] != tok {
		t.Fatalf("expected [%d] after re-arm, got %v", tok, toks)
	}
}

func TestPollerLevelRedelivery(t *testing.T) {
	p := NewPoller()
	r := NewReadiness()
	tok := Token(4)

	if err := p.Register(r, tok, Readable, Level); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	r.Set()

	for i := 0; i < 3; i++ {
		toks, err := p.Wait(2 * time.Second)
		if err != nil {
			t.Fatalf("wait %d failed: %v", i, err)
		}
		if len(toks) != 1 || toks[0] != tok {
			t.Fatalf("wait %d: expected [%d], got %v", i, tok, toks)
		}
	}

	r.Clear()
	if _, err := p.Wait(50 * time.Millisecond); err != ErrTimeout {
		t.Errorf("expected ErrTimeout after Clear, got %v", err)
	}
}

func TestPollerRegisterWhileReady(t *testing.T) {
	p := NewPoller()
	r := NewReadiness()

	// A Set before registration must not be lost.
	r.Set()

	if err := p.Register(r, Token(9), Readable, Edge); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	toks, err := p.Wait(2 * time.Second)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if len(toks) != 1 || toks[0] != Token(9) {
		t.Fatalf("expected [9], got %v", toks)
	}
}

func TestPollerDeregister(t *testing.T) {
	p := NewPoller()
	r := NewReadiness()
	tok := Token(5)

	if err := p.Register(r, tok, Readable, Edge); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := p.Deregister(r); err != nil {
		t.Fatalf("deregister failed: %v", err)
	}

	if err := p.Deregister(r); err != ErrNotRegistered {
		t.Errorf("expected ErrNotRegistered on double deregister, got %v", err)
	}

	// A Set after deregistration must not wake the poller.
	r.Set()
	if _, err := p.Wait(50 * time.Millisecond); err != ErrTimeout {
		t.Errorf("expected ErrTimeout after deregister, got %v", err)
	}

	// The readiness can be registered again after deregistration.
	if err := p.Register(r, tok, Readable, Edge); err != nil {
		t.Errorf("re-register after deregister failed: %v", err)
	}
}

func TestPollerReregister(t *testing.T) {
	p := NewPoller()
	r := NewReadiness()

	if err := p.Reregister(r, Token(1), Readable, Edge); err != ErrNotRegistered {
		t.Fatalf("expected ErrNotRegistered before register, got %v", err)
	}

	if err := p.Register(r, Token(1), Readable, Edge); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	other := NewReadiness()
	if err := p.Register(other, Token(2), Readable, Edge); err != nil {
		t.Fatalf("register other failed: %v", err)
	}

	if err := p.Reregister(r, Token(2), Readable, Edge); err != ErrTokenInUse {
		t.Errorf("expected ErrTokenInUse, got %v", err)
	}

	if err := p.Reregister(r, Token(3), Readable, Level); err != nil {
		t.Fatalf("reregister failed: %v", err)
	}

	r.Set()
	toks, err := p.Wait(2 * time.Second)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if len(toks) != 1 || toks[0] != Token(3) {
		t.Fatalf("expected [3] under the new token, got %v", toks)
	}
}

func TestPollerMultipleSources(t *testing.T) {
	p := NewPoller()
	a := NewReadiness()
	b := NewReadiness()

	if err := p.Register(a, Token(1), Readable, Edge); err != nil {
		t.Fatalf("register a failed: %v", err)
	}
	if err := p.Register(b, Token(2), Readable, Edge); err != nil {
		t.Fatalf("register b failed: %v", err)
	}

	a.Set()
	b.Set()

	got := make(map[Token]bool)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < 2 && time.Now().Before(deadline) {
		toks, err := p.Wait(time.Until(deadline))
		if err != nil {
			t.Fatalf("wait failed: %v", err)
		}
		for _, tok := range toks {
			got[tok] = true
		}
	}

	if !got[Token(1)] || !got[Token(2)] {
		t.Errorf("expected wakes for both tokens, got %v", got)
	}
}
