package childpoll

import (
	"syscall"
	"testing"
)

func TestStreamKindString(t *testing.T) {
	tests := []struct {
		kind StreamKind
		want string
	}{
		{Stdout, "stdout"},
		{Stderr, "stderr"},
		{StreamKind(7), "unknown(7)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("StreamKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateRunning, "running"},
		{StateExited, "exited"},
		{StateKilled, "killed"},
		{State(9), "unknown(9)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestExitStatus(t *testing.T) {
	ok := ExitStatus{Code: 0}
	if !ok.Success() {
		t.Error("expected zero exit to be a success")
	}
	if got := ok.String(); got != "exit status 0" {
		t.Errorf("unexpected String: %q", got)
	}

	failed := ExitStatus{Code: 2}
	if failed.Success() {
		t.Error("expected nonzero exit to not be a success")
	}

	killed := ExitStatus{Code: -1, Signaled: true, Signal: syscall.SIGTERM}
	if killed.Success() {
		t.Error("expected signaled status to not be a success")
	}
	if got := killed.String(); got != "signal: terminated" {
		t.Errorf("unexpected String for signaled status: %q", got)
	}
}
