package childpoll

import "fmt"

// StreamKind identifies which standard stream of the child an event
// originated from.
type StreamKind int

const (
	// Stdout is the child's standard output stream.
	Stdout StreamKind = iota
	// Stderr is the child's standard error stream.
	Stderr
)

// String returns a human-readable stream name.
func (k StreamKind) String() string {
	switch k {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Event is one observation about a child process, received from
// Process.TryRecv. The concrete types are Data, StreamError, CommandError,
// and Exit; the set is closed.
type Event interface {
	event()
}

// Data carries one chunk read from a piped stream.
//
// Chunk boundaries are read boundaries, not message boundaries: a single
// write by the child may arrive split across several Data events, and
// several writes may coalesce into one.
type Data struct {
	// Stream is the stream the chunk was read from.
	Stream StreamKind

	// Bytes is the chunk. The slice is owned by the receiver.
	Bytes []byte
}

// StreamError reports a failed read on a piped stream. The stream's worker
// has terminated; no further Data events arrive for that stream. The other
// stream and the exit watcher are unaffected.
type StreamError struct {
	// Stream is the stream whose read failed.
	Stream StreamKind

	// Err is the read error.
	Err error
}

// CommandError reports a failure of the wait call on the child itself.
// When a CommandError is delivered, no Exit event will ever arrive.
type CommandError struct {
	// Err is the wait error.
	Err error
}

// Exit reports that the child terminated. At most one Exit is delivered per
// process; it is the terminal lifecycle event, though stream events queued
// before it may still be drained after it is observed.
type Exit struct {
	// Status describes how the child terminated.
	Status ExitStatus
}

func (Data) event()         {}
func (StreamError) event()  {}
func (CommandError) event() {}
func (Exit) event()         {}
