package childpoll

import (
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// Supervisor tracks a set of launched processes by ID.
//
// It adds registry and shutdown behavior on top of Start: lookups by ID and
// name, signal fan-out, and a graceful TERM-then-KILL shutdown. Event
// consumption stays with whoever holds each Process handle; the supervisor
// never drains queues.
//
// Supervisor is safe for concurrent use.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process

	// shutdown is closed when Shutdown begins.
	shutdown chan struct{}

	// closed indicates the supervisor has been shut down.
	closed atomic.Bool

	// maxProcesses limits concurrent processes (0 = unlimited).
	maxProcesses int

	// onProcessExit is called from the monitor goroutine when a process
	// exits, before it is removed from the registry.
	onProcessExit func(p *Process)
}

// SupervisorOption configures a Supervisor instance.
type SupervisorOption func(*Supervisor)

// WithMaxProcesses sets the maximum number of concurrent processes.
// A value of 0 (default) means unlimited.
func WithMaxProcesses(max int) SupervisorOption {
	return func(s *Supervisor) {
		s.maxProcesses = max
	}
}

// WithProcessExitCallback sets a callback for when processes exit.
func WithProcessExitCallback(fn func(p *Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onProcessExit = fn
	}
}

// NewSupervisor creates a new process supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		processes: make(map[string]*Process),
		shutdown:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start launches a new supervised process with a generated ID.
// Returns ErrSupervisorShutdown if the supervisor is shutting down.
func (s *Supervisor) Start(name string, cfg Config) (*Process, error) {
	return s.StartWithID(uuid.New().String(), name, cfg)
}

// StartWithID launches a new supervised process with a specific ID.
//
// This is useful when the caller needs to control the ID, for example when
// restoring state or for deterministic testing.
func (s *Supervisor) StartWithID(id, name string, cfg Config) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check shutdown state under the lock to avoid racing Shutdown.
	if s.closed.Load() {
		return nil, ErrSupervisorShutdown
	}

	if s.maxProcesses > 0 && len(s.processes) >= s.maxProcesses {
		return nil, fmt.Errorf("process limit reached: %d", s.maxProcesses)
	}

	if _, exists := s.processes[id]; exists {
		return nil, fmt.Errorf("process ID already exists: %s", id)
	}

	proc, err := launch(cfg, id, name)
	if err != nil {
		return nil, err
	}

	s.processes[id] = proc
	go s.monitorProcess(proc)

	return proc, nil
}

// monitorProcess watches for process exit and removes it from the registry.
func (s *Supervisor) monitorProcess(proc *Process) {
	<-proc.Done()

	if s.onProcessExit != nil {
		func() {
			defer func() {
				// Callback panics must not take down the monitor.
				_ = recover()
			}()
			s.onProcessExit(proc)
		}()
	}

	s.mu.Lock()
	delete(s.processes, proc.ID)
	s.mu.Unlock()
}

// Get returns a process by ID, or nil if not found.
func (s *Supervisor) Get(id string) *Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processes[id]
}

// GetByName returns processes matching the given name.
// Multiple processes can share a name.
func (s *Supervisor) GetByName(name string) []*Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Process
	for _, p := range s.processes {
		if p.Name == name {
			result = append(result, p)
		}
	}
	return result
}

// List returns all supervised processes.
func (s *Supervisor) List() []*Process {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		result = append(result, p)
	}
	return result
}

// Count returns the number of supervised processes.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// Kill kills a process by ID.
// Returns ErrProcessNotFound if the process doesn't exist.
func (s *Supervisor) Kill(id string) error {
	proc := s.Get(id)
	if proc == nil {
		return ErrProcessNotFound
	}

	if !proc.IsRunning() {
		return nil // Already exited
	}

	return proc.Kill()
}

// Terminate sends SIGTERM to a process by ID.
// Returns ErrProcessNotFound if the process doesn't exist.
func (s *Supervisor) Terminate(id string) error {
	proc := s.Get(id)
	if proc == nil {
		return ErrProcessNotFound
	}

	if !proc.IsRunning() {
		return nil // Already exited
	}

	return proc.Terminate()
}

// Signal sends a signal to a process by ID.
// Returns ErrProcessNotFound if the process doesn't exist.
func (s *Supervisor) Signal(id string, sig syscall.Signal) error {
	proc := s.Get(id)
	if proc == nil {
		return ErrProcessNotFound
	}

	if !proc.IsRunning() {
		return nil // Already exited
	}

	return proc.Signal(sig)
}

// KillAll kills all supervised processes immediately.
func (s *Supervisor) KillAll() {
	for _, p := range s.List() {
		if p.IsRunning() {
			_ = p.Kill()
		}
	}
}

// TerminateAll sends SIGTERM to all supervised processes.
func (s *Supervisor) TerminateAll() {
	for _, p := range s.List() {
		if p.IsRunning() {
			_ = p.Terminate()
		}
	}
}

// Shutdown gracefully shuts down all supervised processes.
//
// It first sends SIGTERM to every process and waits up to timeout for them
// to exit. Any process still running after the timeout is killed with
// SIGKILL. Shutdown blocks until all processes have exited and been removed
// from the registry.
func (s *Supervisor) Shutdown(timeout time.Duration) {
	if s.closed.Swap(true) {
		return // Already shutting down
	}

	close(s.shutdown)

	procs := s.List()
	if len(procs) == 0 {
		return
	}

	for _, p := range procs {
		if p.IsRunning() {
			_ = p.Terminate()
		}
	}

	done := make(chan struct{})
	go func() {
		for _, p := range procs {
			<-p.Done()
		}
		close(done)
	}()

	select {
	case <-done:
		// All processes exited gracefully
	case <-time.After(timeout):
		for _, p := range procs {
			if p.IsRunning() {
				_ = p.Kill()
			}
		}
		<-done
	}

	// Wait for monitor goroutines to empty the registry so Count()
	// returns 0 once Shutdown returns.
	s.waitForCleanup()
}

// waitForCleanup waits for all processes to be removed from the registry.
func (s *Supervisor) waitForCleanup() {
	for {
		if s.Count() == 0 {
			return
		}
		time.Sleep(1 * time.Millisecond)
	}
}

// IsShuttingDown returns true if the supervisor is shutting down.
func (s *Supervisor) IsShuttingDown() bool {
	return s.closed.Load()
}

// ShutdownChan returns a channel that is closed when shutdown begins.
func (s *Supervisor) ShutdownChan() <-chan struct{} {
	return s.shutdown
}

// Sentinel errors for the supervisor.
var (
	// ErrProcessNotFound is returned when a process ID is not found.
	ErrProcessNotFound = fmt.Errorf("process not found")

	// ErrSupervisorShutdown is returned when the supervisor is shutting down.
	ErrSupervisorShutdown = fmt.Errorf("supervisor is shutting down")
)
