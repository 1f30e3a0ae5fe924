package childpoll

import "testing"

func TestEnvOverride(t *testing.T) {
	proc, err := Start(Config{
		Path:   "sh",
		Args:   []string{"-c", `printf "%s" "$CHILDPOLL_TEST_VALUE"`},
		Env:    map[string]string{"CHILDPOLL_TEST_VALUE": "from-config"},
		Stdin:  StdioNull,
		Stdout: StdioPipe,
		Stderr: StdioNull,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	events := drainAll(t, proc)
	if got := streamBytes(events, Stdout); string(got) != "from-config" {
		t.Errorf("expected env value %q, got %q", "from-config", got)
	}
}

func TestCleanEnv(t *testing.T) {
	proc, err := Start(Config{
		Path:     "env",
		Env:      map[string]string{"CHILDPOLL_ONLY": "clean"},
		CleanEnv: true,
		Stdin:    StdioNull,
		Stdout:   StdioPipe,
		Stderr:   StdioNull,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	events := drainAll(t, proc)

	// With a clean environment the child sees exactly the configured
	// variables, nothing inherited.
	if got := streamBytes(events, Stdout); string(got) != "CHILDPOLL_ONLY=clean\n" {
		t.Errorf("expected only the configured variable, got %q", got)
	}
}

func TestWorkingDir(t *testing.T) {
	proc, err := Start(Config{
		Path:   "sh",
		Args:   []string{"-c", "pwd"},
		Dir:    "/",
		Stdin:  StdioNull,
		Stdout: StdioPipe,
		Stderr: StdioNull,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	events := drainAll(t, proc)
	if got := streamBytes(events, Stdout); string(got) != "/\n" {
		t.Errorf("expected working dir %q, got %q", "/\n", got)
	}
}

func TestStdioModeString(t *testing.T) {
	tests := []struct {
		mode StdioMode
		want string
	}{
		{StdioInherit, "inherit"},
		{StdioPipe, "pipe"},
		{StdioNull, "null"},
		{StdioMode(99), "unknown(99)"},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("StdioMode(%d).String() = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}
