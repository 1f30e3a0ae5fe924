// Package childpoll bridges child processes into a readiness-based poll
// loop.
//
// A launched child exposes three inherently blocking resources: its stdout
// pipe, its stderr pipe, and the wait call for its termination. childpoll
// moves each blocking call onto its own goroutine and merges their
// observations into one FIFO event queue behind a non-blocking receive, so
// the consumer can watch a process the same way it watches sockets: block
// in one poll call, wake on readiness, drain without blocking.
//
// # Launching
//
//	proc, err := childpoll.Start(childpoll.Config{
//	    Path:   "ping",
//	    Args:   []string{"-c", "4", "8.8.8.8"},
//	    Stdout: childpoll.StdioPipe,
//	    Stderr: childpoll.StdioPipe,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// A spawn failure is returned synchronously; no handle or goroutine exists
// in that case. On success between one and three background goroutines are
// feeding the handle: one blocking reader per piped output stream plus one
// exit watcher.
//
// # Polling
//
//	poller := poll.NewPoller()
//	token := poll.Token(1)
//	if err := proc.Register(poller, token, poll.Readable, poll.Edge); err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    if _, err := poller.Wait(-1); err != nil {
//	        log.Fatal(err)
//	    }
//	    for {
//	        ev, err := proc.TryRecv()
//	        if err == childpoll.ErrEmpty {
//	            break // drained; wait for the next wake
//	        }
//	        if err == childpoll.ErrDisconnected {
//	            return // nothing more will ever arrive
//	        }
//	        switch ev := ev.(type) {
//	        case childpoll.Data:
//	            fmt.Printf("%s: %q\n", ev.Stream, ev.Bytes)
//	        case childpoll.Exit:
//	            fmt.Println("exit:", ev.Status)
//	        }
//	    }
//	}
//
// Wakes are edge-triggered: one wake per empty-to-non-empty transition of
// the queue. A wake promises that at least one event was available at
// signal time, never that exactly one is available now, so consumers must
// drain with TryRecv until ErrEmpty on every wake.
//
// # Events
//
//   - Data: a chunk read from a piped stream; chunk boundaries carry no
//     meaning.
//   - StreamError: a read failed; that stream's worker has stopped.
//   - CommandError: the wait call failed; no Exit will arrive.
//   - Exit: the child terminated with the given status. At most one per
//     process.
//
// A clean end-of-stream produces no event; the stream's worker just stops.
//
// # Supervisor
//
// The Supervisor tracks multiple processes by ID and adds signal fan-out
// and graceful TERM-then-KILL shutdown:
//
//	supervisor := childpoll.NewSupervisor()
//	defer supervisor.Shutdown(5 * time.Second)
//
//	proc, err := supervisor.Start("worker", cfg)
//
// # Lifecycle
//
// Dropping a handle early (Close) closes stdin and discards later events;
// it never stops the child or interrupts the background goroutines, which
// always run to completion on their own.
//
// # Thread Safety
//
// Event production is multi-goroutine by design. Consumption is
// single-consumer: TryRecv must not be called concurrently with itself.
// Stdin writes are the caller's own, synchronous responsibility.
package childpoll
