// Package main is the pollrun command: run child processes and stream
// their output through a single poll loop.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dshills/childpoll"
	"github.com/dshills/childpoll/poll"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// options holds parsed command-line options.
type options struct {
	jobFile string
	jsonOut bool
	showVer bool
	command string
	args    []string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.showVer {
		fmt.Printf("pollrun %s (%s)\n", version, commit)
		return 0
	}

	jobs, err := resolveJobs(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return pollJobs(jobs, opts.jsonOut)
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.jobFile, "jobfile", "", "YAML file describing the jobs to run")
	flag.BoolVar(&opts.jsonOut, "json", false, "emit events as JSON lines instead of raw output")
	flag.BoolVar(&opts.showVer, "version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pollrun [flags] [--] command [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Runs commands and streams their output events through one poll loop.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		opts.command = args[0]
		opts.args = args[1:]
	}

	return opts
}

// resolveJobs builds the job list from the job file or the command line.
func resolveJobs(opts options) ([]jobSpec, error) {
	if opts.jobFile != "" {
		if opts.command != "" {
			return nil, fmt.Errorf("-jobfile and a command line are mutually exclusive")
		}
		return loadJobFile(opts.jobFile)
	}

	if opts.command == "" {
		return nil, fmt.Errorf("no command given (try -jobfile or a command line)")
	}

	return []jobSpec{{
		Name:    opts.command,
		Command: opts.command,
		Args:    opts.args,
	}}, nil
}

// job pairs a running process with its spec.
type job struct {
	spec jobSpec
	proc *childpoll.Process
}

// pollJobs launches every job, registers each with one poller, and drains
// events until every job has disconnected. Returns the first nonzero exit
// code observed, or 1 on launch or stream failures.
func pollJobs(specs []jobSpec, jsonOut bool) int {
	poller := poll.NewPoller()
	jobs := make(map[poll.Token]*job, len(specs))
	enc := json.NewEncoder(os.Stdout)
	exitCode := 0

	for i, spec := range specs {
		cfg, err := spec.config()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}

		proc, err := childpoll.Start(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}

		tok := poll.Token(i + 1)
		if err := proc.Register(poller, tok, poll.Readable, poll.Edge); err != nil {
			fmt.Fprintf(os.Stderr, "Error: register %s: %v\n", spec.Name, err)
			return 1
		}

		jobs[tok] = &job{spec: spec, proc: proc}
	}

	for len(jobs) > 0 {
		tokens, err := poller.Wait(-1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: poll: %v\n", err)
			return 1
		}

		for _, tok := range tokens {
			j, ok := jobs[tok]
			if !ok {
				continue
			}

			done, code := drainJob(j, jsonOut, enc)
			if code != 0 && exitCode == 0 {
				exitCode = code
			}
			if done {
				_ = j.proc.Deregister(poller)
				delete(jobs, tok)
			}
		}
	}

	return exitCode
}

// drainJob receives events for one job until its queue reports empty or
// disconnected. Returns whether the job is finished and its failure code.
func drainJob(j *job, jsonOut bool, enc *json.Encoder) (done bool, code int) {
	for {
		ev, err := j.proc.TryRecv()
		if errors.Is(err, childpoll.ErrEmpty) {
			return false, code
		}
		if errors.Is(err, childpoll.ErrDisconnected) {
			return true, code
		}

		if c := reportEvent(j.spec.Name, ev, jsonOut, enc); c != 0 && code == 0 {
			code = c
		}
	}
}

// reportEvent prints one event and returns a nonzero code for failures.
func reportEvent(name string, ev childpoll.Event, jsonOut bool, enc *json.Encoder) int {
	if jsonOut {
		return reportJSON(name, ev, enc)
	}

	switch ev := ev.(type) {
	case childpoll.Data:
		out := os.Stdout
		if ev.Stream == childpoll.Stderr {
			out = os.Stderr
		}
		_, _ = out.Write(ev.Bytes)
	case childpoll.StreamError:
		fmt.Fprintf(os.Stderr, "pollrun: %s: %s read failed: %v\n", name, ev.Stream, ev.Err)
		return 1
	case childpoll.CommandError:
		fmt.Fprintf(os.Stderr, "pollrun: %s: wait failed: %v\n", name, ev.Err)
		return 1
	case childpoll.Exit:
		if !ev.Status.Success() {
			fmt.Fprintf(os.Stderr, "pollrun: %s: %s\n", name, ev.Status)
			if ev.Status.Signaled {
				return 1
			}
			return ev.Status.Code
		}
	}

	return 0
}

// eventRecord is the JSON-lines shape of one event.
type eventRecord struct {
	Job    string `json:"job"`
	Kind   string `json:"kind"`
	Stream string `json:"stream,omitempty"`
	Data   string `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   *int   `json:"code,omitempty"`
	Signal string `json:"signal,omitempty"`
}

// reportJSON emits one event as a JSON line and returns a nonzero code for
// failures.
func reportJSON(name string, ev childpoll.Event, enc *json.Encoder) int {
	rec := eventRecord{Job: name}
	code := 0

	switch ev := ev.(type) {
	case childpoll.Data:
		rec.Kind = "data"
		rec.Stream = ev.Stream.String()
		rec.Data = string(ev.Bytes)
	case childpoll.StreamError:
		rec.Kind = "stream_error"
		rec.Stream = ev.Stream.String()
		rec.Error = ev.Err.Error()
		code = 1
	case childpoll.CommandError:
		rec.Kind = "command_error"
		rec.Error = ev.Err.Error()
		code = 1
	case childpoll.Exit:
		rec.Kind = "exit"
		if ev.Status.Signaled {
			rec.Signal = ev.Status.Signal.String()
			code = 1
		} else {
			c := ev.Status.Code
			rec.Code = &c
			code = c
		}
	}

	if err := enc.Encode(rec); err != nil {
		fmt.Fprintf(os.Stderr, "pollrun: encode event: %v\n", err)
	}

	return code
}
