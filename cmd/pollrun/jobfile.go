package main

import (
	"fmt"
	"os"

	"github.com/dshills/childpoll"
	"gopkg.in/yaml.v3"
)

// jobFile is the YAML description of a set of commands to run.
type jobFile struct {
	Jobs []jobSpec `yaml:"jobs"`
}

// jobSpec describes one command.
type jobSpec struct {
	// Name identifies the job in output. Defaults to the command.
	Name string `yaml:"name"`

	// Command is the program to run.
	Command string `yaml:"command"`

	// Args are the program arguments.
	Args []string `yaml:"args"`

	// Dir is the working directory.
	Dir string `yaml:"dir"`

	// Env holds environment overrides.
	Env map[string]string `yaml:"env"`

	// Stdin, Stdout, and Stderr are stdio modes: "inherit", "pipe", or
	// "discard". Stdout and stderr default to pipe, stdin to discard.
	Stdin  string `yaml:"stdin"`
	Stdout string `yaml:"stdout"`
	Stderr string `yaml:"stderr"`
}

// loadJobFile reads and validates a YAML job file.
func loadJobFile(path string) ([]jobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}

	var jf jobFile
	if err := yaml.Unmarshal(data, &jf); err != nil {
		return nil, fmt.Errorf("parse job file: %w", err)
	}

	if len(jf.Jobs) == 0 {
		return nil, fmt.Errorf("job file %s defines no jobs", path)
	}

	for i := range jf.Jobs {
		job := &jf.Jobs[i]
		if job.Command == "" {
			return nil, fmt.Errorf("job %d has no command", i)
		}
		if job.Name == "" {
			job.Name = job.Command
		}
	}

	return jf.Jobs, nil
}

// config translates a job spec into a launch configuration.
func (j jobSpec) config() (childpoll.Config, error) {
	stdin, err := parseStdioMode(j.Stdin, childpoll.StdioNull)
	if err != nil {
		return childpoll.Config{}, fmt.Errorf("job %s: stdin: %w", j.Name, err)
	}
	stdout, err := parseStdioMode(j.Stdout, childpoll.StdioPipe)
	if err != nil {
		return childpoll.Config{}, fmt.Errorf("job %s: stdout: %w", j.Name, err)
	}
	stderr, err := parseStdioMode(j.Stderr, childpoll.StdioPipe)
	if err != nil {
		return childpoll.Config{}, fmt.Errorf("job %s: stderr: %w", j.Name, err)
	}

	return childpoll.Config{
		Path:   j.Command,
		Args:   j.Args,
		Dir:    j.Dir,
		Env:    j.Env,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}, nil
}

// parseStdioMode maps a job-file mode string onto a StdioMode.
func parseStdioMode(s string, def childpoll.StdioMode) (childpoll.StdioMode, error) {
	switch s {
	case "":
		return def, nil
	case "inherit":
		return childpoll.StdioInherit, nil
	case "pipe":
		return childpoll.StdioPipe, nil
	case "discard", "null":
		return childpoll.StdioNull, nil
	default:
		return 0, fmt.Errorf("unknown stdio mode %q", s)
	}
}
