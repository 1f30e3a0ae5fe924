package childpoll

import (
	"fmt"
	"syscall"
)

// ExitStatus describes how a child process terminated.
type ExitStatus struct {
	// Code is the exit code. -1 if the process was killed by a signal
	// and no code is available.
	Code int

	// Signaled is true if the process was terminated by a signal.
	Signaled bool

	// Signal is the terminating signal when Signaled is true.
	Signal syscall.Signal
}

// Success reports whether the child exited normally with code zero.
func (s ExitStatus) Success() bool {
	return !s.Signaled && s.Code == 0
}

// String returns a human-readable status description.
func (s ExitStatus) String() string {
	if s.Signaled {
		return fmt.Sprintf("signal: %v", s.Signal)
	}
	return fmt.Sprintf("exit status %d", s.Code)
}
