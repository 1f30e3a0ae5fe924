package childpoll

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dshills/childpoll/poll"
)

// State represents the lifecycle state of a launched process.
type State int

const (
	// StateRunning indicates the process is currently running.
	StateRunning State = iota
	// StateExited indicates the process has exited normally or with an
	// error code.
	StateExited
	// StateKilled indicates the process was terminated by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Process is the handle to a launched child process.
//
// All observation of the child happens through TryRecv, fed by background
// goroutines that perform the blocking reads and the blocking wait. The
// handle's readiness can be registered with a poll.Poller so the consumer
// only ever blocks inside the poller's Wait call.
//
// The caller's goroutine is the single consumer: TryRecv must not be called
// concurrently with itself. Stdin writes are synchronous and entirely the
// caller's responsibility.
type Process struct {
	// ID is a unique identifier, set when launched through a Supervisor.
	ID string

	// Name is a human-readable name, set when launched through a
	// Supervisor.
	Name string

	// Started is the time the process was started.
	Started time.Time

	// cmd is the underlying command, owned by the exit watcher after
	// launch. Only the Process signal methods touch cmd.Process.
	cmd *exec.Cmd

	// stdin is the write end of the child's stdin pipe, or nil if stdin
	// was not piped.
	stdin *os.File

	// queue aggregates events from all workers.
	queue *eventQueue

	// readiness is shared with the workers and the consumer's poller.
	readiness *poll.Readiness

	// done is closed when the exit watcher finishes.
	done chan struct{}

	// state tracks the current lifecycle state.
	state atomic.Int32

	// exitCode stores the exit code after exit; -1 before.
	exitCode atomic.Int32

	// closeOnce guards Close.
	closeOnce sync.Once
}

// TryRecv receives the next queued event without blocking.
//
// Returns ErrEmpty when nothing is queued; the caller should stop draining
// and wait for the next readiness wake. Returns ErrDisconnected once every
// background worker has terminated and the queue is empty, which is the
// true end of the process's observable lifetime.
//
// On every readiness wake the caller must loop TryRecv until ErrEmpty:
// a wake means at least one event was available at signal time, not that
// exactly one is available now.
func (p *Process) TryRecv() (Event, error) {
	return p.queue.tryRecv()
}

// Register registers the process's readiness with a poller under the given
// token. Registering an already registered process returns
// poll.ErrAlreadyRegistered.
func (p *Process) Register(pl *poll.Poller, tok poll.Token, interest poll.Interest, trigger poll.Trigger) error {
	return pl.Register(p.readiness, tok, interest, trigger)
}

// Reregister updates an existing poller registration.
func (p *Process) Reregister(pl *poll.Poller, tok poll.Token, interest poll.Interest, trigger poll.Trigger) error {
	return pl.Reregister(p.readiness, tok, interest, trigger)
}

// Deregister removes the process from a poller.
func (p *Process) Deregister(pl *poll.Poller) error {
	return pl.Deregister(p.readiness)
}

// Stdin returns the write end of the child's stdin pipe, or nil if stdin
// was not configured as piped. Writing is synchronous and blocking; it is
// outside the handle's concurrency model.
func (p *Process) Stdin() io.WriteCloser {
	if p.stdin == nil {
		return nil
	}
	return p.stdin
}

// Write writes to the child's stdin pipe, implementing io.Writer.
// Returns ErrStdinNotPiped if stdin was not configured as piped.
func (p *Process) Write(b []byte) (int, error) {
	if p.stdin == nil {
		return 0, ErrStdinNotPiped
	}
	return p.stdin.Write(b)
}

// CloseStdin closes the child's stdin pipe, delivering end-of-stream to the
// child. Returns ErrStdinNotPiped if stdin was not configured as piped.
func (p *Process) CloseStdin() error {
	if p.stdin == nil {
		return ErrStdinNotPiped
	}
	return p.stdin.Close()
}

// PID returns the OS process ID, or -1 if unavailable.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// State returns the current lifecycle state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// ExitCode returns the process exit code, or -1 if the process has not
// exited (or was killed by a signal).
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// IsRunning returns true while the process has not terminated.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// HasExited returns true once the process has terminated, normally or by
// signal.
func (p *Process) HasExited() bool {
	state := p.State()
	return state == StateExited || state == StateKilled
}

// Done returns a channel that is closed when the exit watcher observes the
// child's termination. It is a convenience for callers that are not inside
// a poll loop; poll-loop callers should key on the Exit event instead.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Runtime returns the duration since the process was started.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	return time.Since(p.Started)
}

// Signal sends a signal to the process. Returns an error if the process is
// no longer running.
func (p *Process) Signal(sig os.Signal) error {
	if !p.IsRunning() {
		return ErrProcessFinished
	}
	if p.cmd.Process == nil {
		return ErrProcessFinished
	}
	return p.cmd.Process.Signal(sig)
}

// Kill sends SIGKILL to the process.
func (p *Process) Kill() error {
	return p.Signal(syscall.SIGKILL)
}

// Interrupt sends SIGINT to the process.
func (p *Process) Interrupt() error {
	return p.Signal(syscall.SIGINT)
}

// Terminate sends SIGTERM to the process.
func (p *Process) Terminate() error {
	return p.Signal(syscall.SIGTERM)
}

// Close abandons the handle: the stdin pipe (if any) is closed and queued
// events are released, after which further worker pushes are discarded.
//
// Close does not stop the child and does not join the background workers;
// they run to completion on their own.
func (p *Process) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.stdin != nil {
			err = p.stdin.Close()
		}
		p.queue.close()
	})
	return err
}

// watchExit is the exit watcher: a single blocking wait on the child.
//
// A normal exit or a nonzero exit code produces the Exit event. A failure
// of the wait call itself produces CommandError and no Exit is ever
// delivered. The watcher never reads the child's streams.
func (p *Process) watchExit() {
	defer p.queue.producerDone()
	defer close(p.done)

	err := p.cmd.Wait()

	var status ExitStatus
	state := StateExited

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The wait call itself failed; there is no status to
			// report.
			p.exitCode.Store(-1)
			p.state.Store(int32(StateExited))
			p.queue.push(CommandError{Err: err})
			return
		}

		status.Code = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			status.Signaled = true
			status.Signal = ws.Signal()
			state = StateKilled
		}
	}

	p.exitCode.Store(int32(status.Code))
	p.state.Store(int32(state))
	p.queue.push(Exit{Status: status})
}

// Sentinel errors for the childpoll package.
var (
	// ErrEmpty is returned by TryRecv when no event is queued. It is not
	// a failure; wait for the next readiness wake.
	ErrEmpty = fmt.Errorf("no event queued")

	// ErrDisconnected is returned by TryRecv once all background workers
	// have terminated and the queue is empty.
	ErrDisconnected = fmt.Errorf("all workers terminated")

	// ErrStdinNotPiped is returned by stdin operations when stdin was not
	// configured as piped.
	ErrStdinNotPiped = fmt.Errorf("stdin not piped")

	// ErrProcessFinished is returned by signal operations after the
	// process has terminated.
	ErrProcessFinished = fmt.Errorf("process already finished")
)
