package childpoll

import (
	"testing"

	"github.com/dshills/childpoll/poll"
)

func TestQueueFIFO(t *testing.T) {
	q := newEventQueue(poll.NewReadiness(), 1)

	q.push(Data{Stream: Stdout, Bytes: []byte("a")})
	q.push(Data{Stream: Stderr, Bytes: []byte("b")})
	q.push(Exit{})

	ev, err := q.tryRecv()
	if err != nil {
		t.Fatalf("tryRecv: %v", err)
	}
	if d, ok := ev.(Data); !ok || d.Stream != Stdout {
		t.Errorf("expected stdout Data first, got %#v", ev)
	}

	ev, err = q.tryRecv()
	if err != nil {
		t.Fatalf("tryRecv: %v", err)
	}
	if d, ok := ev.(Data); !ok || d.Stream != Stderr {
		t.Errorf("expected stderr Data second, got %#v", ev)
	}

	ev, err = q.tryRecv()
	if err != nil {
		t.Fatalf("tryRecv: %v", err)
	}
	if _, ok := ev.(Exit); !ok {
		t.Errorf("expected Exit last, got %#v", ev)
	}

	if _, err := q.tryRecv(); err != ErrEmpty {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestQueueDisconnected(t *testing.T) {
	q := newEventQueue(poll.NewReadiness(), 2)

	if _, err := q.tryRecv(); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty with live producers, got %v", err)
	}

	q.push(Exit{})
	q.producerDone()

	// One producer remains: still Empty after the queue drains.
	if _, err := q.tryRecv(); err != nil {
		t.Fatalf("tryRecv: %v", err)
	}
	if _, err := q.tryRecv(); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}

	q.producerDone()
	if _, err := q.tryRecv(); err != ErrDisconnected {
		t.Errorf("expected ErrDisconnected, got %v", err)
	}
}

func TestQueueDrainBeforeDisconnect(t *testing.T) {
	q := newEventQueue(poll.NewReadiness(), 1)

	q.push(Data{Stream: Stdout, Bytes: []byte("tail")})
	q.producerDone()

	// Queued events outlive their producers.
	if _, err := q.tryRecv(); err != nil {
		t.Fatalf("expected queued event, got error %v", err)
	}
	if _, err := q.tryRecv(); err != ErrDisconnected {
		t.Errorf("expected ErrDisconnected after drain, got %v", err)
	}
}

func TestQueuePushAfterClose(t *testing.T) {
	q := newEventQueue(poll.NewReadiness(), 1)

	q.push(Data{Stream: Stdout, Bytes: []byte("kept?")})
	q.close()

	// Pushes after close are discarded, not queued and not a panic.
	q.push(Data{Stream: Stdout, Bytes: []byte("dropped")})

	if _, err := q.tryRecv(); err != ErrEmpty {
		t.Errorf("expected ErrEmpty after close, got %v", err)
	}

	q.producerDone()
	if _, err := q.tryRecv(); err != ErrDisconnected {
		t.Errorf("expected ErrDisconnected, got %v", err)
	}
}

func TestQueueReadinessTracking(t *testing.T) {
	r := poll.NewReadiness()
	q := newEventQueue(r, 1)

	if r.IsSet() {
		t.Error("expected readiness clear on a fresh queue")
	}

	q.push(Exit{})
	if !r.IsSet() {
		t.Error("expected readiness set after push")
	}

	if _, err := q.tryRecv(); err != nil {
		t.Fatalf("tryRecv: %v", err)
	}
	if r.IsSet() {
		t.Error("expected readiness cleared once the queue is empty")
	}

	// The disconnect transition also signals readiness so a blocked
	// consumer wakes to observe it.
	q.producerDone()
	if !r.IsSet() {
		t.Error("expected readiness set by the final producerDone")
	}
}
