package childpoll

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/dshills/childpoll/poll"
)

// StdioMode selects how one of the child's standard streams is wired.
type StdioMode int

const (
	// StdioInherit connects the stream to the parent's corresponding
	// stream. This is the zero value.
	StdioInherit StdioMode = iota

	// StdioPipe connects the stream to a pipe. For stdout and stderr a
	// background worker reads the pipe and delivers Data events; for
	// stdin the write end is exposed through the Process handle.
	StdioPipe

	// StdioNull connects the stream to the null device.
	StdioNull
)

// String returns a human-readable mode name.
func (m StdioMode) String() string {
	switch m {
	case StdioInherit:
		return "inherit"
	case StdioPipe:
		return "pipe"
	case StdioNull:
		return "null"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Config describes a child process launch.
type Config struct {
	// Path is the program to run. Resolved against PATH when it contains
	// no path separator, following os/exec rules.
	Path string

	// Args are the program arguments, not including the program itself.
	Args []string

	// Dir is the working directory. Empty means the parent's.
	Dir string

	// Env holds environment variables for the child. By default they are
	// applied on top of the parent's environment; with CleanEnv set they
	// are the child's entire environment.
	Env map[string]string

	// CleanEnv starts the child with exactly Env instead of inheriting
	// the parent's environment.
	CleanEnv bool

	// Stdin, Stdout, and Stderr select the wiring of each standard
	// stream independently. The zero value is StdioInherit.
	Stdin  StdioMode
	Stdout StdioMode
	Stderr StdioMode
}

// Start spawns the process described by cfg and returns its handle.
//
// The spawn itself is synchronous: a spawn failure is returned directly and
// no handle, goroutine, or event exists in that case. On success between
// one and three background goroutines are running — one blocking reader per
// piped output stream plus the exit watcher — all feeding the handle's
// event queue.
func Start(cfg Config) (*Process, error) {
	return launch(cfg, "", "")
}

// launch is the shared implementation behind Start and Supervisor.Start.
func launch(cfg Config, id, name string) (*Process, error) {
	if cfg.Path == "" {
		return nil, ErrNoCommand
	}

	cmd := exec.Command(cfg.Path, cfg.Args...)
	cmd.Dir = cfg.Dir

	if cfg.CleanEnv {
		// A non-nil, possibly empty slice: nil would mean "inherit" to
		// os/exec.
		env := make([]string, 0, len(cfg.Env))
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	} else if len(cfg.Env) > 0 {
		env := os.Environ()
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		// os/exec keeps the last value for duplicate keys, so appended
		// entries override inherited ones.
		cmd.Env = env
	}

	// Pipes are created directly rather than through cmd.StdoutPipe so the
	// blocking wait never races the readers: exec.Cmd.Wait closes pipes it
	// created itself. Child ends are closed in the parent after the spawn;
	// each worker owns and closes its parent end.
	var (
		stdin     *os.File
		stdoutR   *os.File
		stderrR   *os.File
		childEnds []*os.File
		allEnds   []*os.File
	)

	closeAll := func(files []*os.File) {
		for _, f := range files {
			f.Close()
		}
	}

	switch cfg.Stdin {
	case StdioPipe:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("create stdin pipe: %w", err)
		}
		cmd.Stdin = r
		stdin = w
		childEnds = append(childEnds, r)
		allEnds = append(allEnds, r, w)
	case StdioInherit:
		cmd.Stdin = os.Stdin
	case StdioNull:
		// os/exec connects a nil Stdin to the null device.
	}

	if cfg.Stdout == StdioPipe {
		r, w, err := os.Pipe()
		if err != nil {
			closeAll(allEnds)
			return nil, fmt.Errorf("create stdout pipe: %w", err)
		}
		cmd.Stdout = w
		stdoutR = r
		childEnds = append(childEnds, w)
		allEnds = append(allEnds, r, w)
	} else if cfg.Stdout == StdioInherit {
		cmd.Stdout = os.Stdout
	}

	if cfg.Stderr == StdioPipe {
		r, w, err := os.Pipe()
		if err != nil {
			closeAll(allEnds)
			return nil, fmt.Errorf("create stderr pipe: %w", err)
		}
		cmd.Stderr = w
		stderrR = r
		childEnds = append(childEnds, w)
		allEnds = append(allEnds, r, w)
	} else if cfg.Stderr == StdioInherit {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		closeAll(allEnds)
		return nil, fmt.Errorf("start %s: %w", cfg.Path, err)
	}

	// The child holds its own descriptors now; keeping ours open would
	// stop the readers from ever seeing end-of-stream.
	closeAll(childEnds)

	producers := 1
	if stdoutR != nil {
		producers++
	}
	if stderrR != nil {
		producers++
	}

	readiness := poll.NewReadiness()
	p := &Process{
		ID:        id,
		Name:      name,
		Started:   time.Now(),
		cmd:       cmd,
		stdin:     stdin,
		queue:     newEventQueue(readiness, producers),
		readiness: readiness,
		done:      make(chan struct{}),
	}
	p.state.Store(int32(StateRunning))
	p.exitCode.Store(-1)

	if stdoutR != nil {
		go readPump(Stdout, stdoutR, p.queue)
	}
	if stderrR != nil {
		go readPump(Stderr, stderrR, p.queue)
	}
	go p.watchExit()

	return p, nil
}

// ErrNoCommand is returned by Start when the config names no program.
var ErrNoCommand = fmt.Errorf("no command given")
