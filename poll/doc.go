// Package poll provides the readiness primitive and a reference reactor
// for non-blocking event sources.
//
// The package is deliberately small: a Readiness is a thread-safe flag that
// producers set and consumers clear, and a Poller is a reactor that blocks
// until at least one registered Readiness reports ready.
//
// # Readiness
//
// A Readiness is shared between the producer side of an event source (which
// calls Set whenever new work arrives) and the consumer side (which calls
// Clear once it has drained the source). Set is safe to call concurrently
// from any number of goroutines.
//
// # Poller
//
// The Poller plays the role of an external reactor. Sources register under a
// caller-chosen Token and a trigger mode:
//
//	poller := poll.NewPoller()
//	if err := poller.Register(readiness, poll.Token(1), poll.Readable, poll.Edge); err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    tokens, err := poller.Wait(time.Second)
//	    if err == poll.ErrTimeout {
//	        continue
//	    }
//	    // drain each ready source fully before waiting again
//	}
//
// # Trigger Modes
//
// In Edge mode a token is delivered once per not-ready to ready transition;
// the consumer must drain the source fully, because no further wake arrives
// until the flag has been cleared and set again. In Level mode a token is
// redelivered on every Wait for as long as its flag remains set.
//
// # Thread Safety
//
// Readiness and Poller are both safe for concurrent use.
package poll
