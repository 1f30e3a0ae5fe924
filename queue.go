package childpoll

import (
	"sync"

	"github.com/dshills/childpoll/poll"
)

// eventQueue is the aggregation channel: an unbounded multi-producer
// single-consumer FIFO of events, wired to a readiness flag.
//
// Pushes never block. The readiness flag is set while the queue is
// non-empty and cleared by tryRecv when it observes the queue empty, which
// is what gives the registered poller its edge semantics.
type eventQueue struct {
	mu sync.Mutex

	// events is the queued FIFO, oldest first.
	events []Event

	// producers counts worker goroutines still able to push. When it
	// reaches zero and the queue is empty, tryRecv reports disconnection.
	producers int

	// closed is set once the consumer abandons the queue; later pushes
	// are discarded.
	closed bool

	// readiness is shared with the consumer's poller registration.
	readiness *poll.Readiness
}

// newEventQueue creates a queue expecting the given number of producers.
func newEventQueue(r *poll.Readiness, producers int) *eventQueue {
	return &eventQueue{
		producers: producers,
		readiness: r,
	}
}

// push appends an event and signals readiness. Never blocks. Events pushed
// after close are silently dropped.
func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.events = append(q.events, ev)
	q.readiness.Set()
}

// producerDone records the termination of one producer goroutine. When the
// last producer finishes, readiness is signalled once more so a consumer
// blocked in a poller can wake and observe disconnection.
func (q *eventQueue) producerDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.producers--
	if q.producers == 0 {
		q.readiness.Set()
	}
}

// tryRecv pops the oldest event without blocking.
//
// Returns ErrEmpty if nothing is queued but producers remain, and
// ErrDisconnected once the queue is empty and every producer has
// terminated. Clears readiness whenever it observes the queue empty.
func (q *eventQueue) tryRecv() (Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		q.readiness.Clear()
		if q.producers == 0 {
			return nil, ErrDisconnected
		}
		return nil, ErrEmpty
	}

	ev := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]

	if len(q.events) == 0 {
		q.readiness.Clear()
	}

	return ev, nil
}

// close abandons the queue: queued events are released and later pushes are
// discarded. Producers are unaffected and run to completion.
func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.events = nil
}
