package tool

import (
	"context"
	"strings"
	"testing"
)

func TestShellRunCapturesOutput(t *testing.T) {
	s := NewShell("", 10, 0)

	out, failed := s.Run(context.Background(), "echo hello")
	if failed {
		t.Error("echo should not fail")
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("output = %q", out)
	}
}

func TestShellRunNonzeroExitFails(t *testing.T) {
	s := NewShell("", 10, 0)

	if _, failed := s.Run(context.Background(), "exit 3"); !failed {
		t.Error("nonzero exit should be a failure")
	}
}

func TestShellRunErrorSubstringFails(t *testing.T) {
	s := NewShell("", 10, 0)

	// Zero exit code but error-looking output.
	_, failed := s.Run(context.Background(), "echo 'No such file or directory'")
	if !failed {
		t.Error("error-indicating output should be a failure")
	}
}

func TestShellRunTruncatesOutput(t *testing.T) {
	s := NewShell("", 10, 20)

	out, _ := s.Run(context.Background(), "printf '%060d' 0")
	if !strings.HasSuffix(out, "\n... (output truncated)") {
		t.Errorf("missing truncation marker: %q", out)
	}
	if len(out) > 20+len("\n... (output truncated)") {
		t.Errorf("output not capped: %d bytes", len(out))
	}
}

func TestShellRunEmptyCommand(t *testing.T) {
	s := NewShell("", 10, 0)

	out, failed := s.Run(context.Background(), "   ")
	if failed || out != "" {
		t.Errorf("blank command should be a no-op, got %q failed=%v", out, failed)
	}
}
