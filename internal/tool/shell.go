package tool

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultShellTimeout   = 60
	defaultMaxOutputBytes = 8000
)

// Shell executes commands via sh -c with a timeout and an output cap.
type Shell struct {
	workingDir     string
	timeoutSeconds int
	maxOutputBytes int
}

func NewShell(workingDir string, timeoutSeconds, maxOutputBytes int) *Shell {
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultShellTimeout
	}
	if maxOutputBytes <= 0 {
		maxOutputBytes = defaultMaxOutputBytes
	}
	return &Shell{
		workingDir:     workingDir,
		timeoutSeconds: timeoutSeconds,
		maxOutputBytes: maxOutputBytes,
	}
}

// Run executes command and returns combined stdout+stderr, capped at the
// output limit. The failed result reports nonzero exit as well as
// error-indicating substrings in the output.
func (s *Shell) Run(ctx context.Context, command string) (output string, failed bool) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", false
	}

	timeout := time.Duration(s.timeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Always use sh -c for reliable handling of pipes, redirects, quotes.
	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	if s.workingDir != "" {
		cmd.Dir = s.workingDir
	}

	raw, err := cmd.CombinedOutput()
	output = string(raw)

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Sprintf("command timed out after %ds", s.timeoutSeconds), true
		}
		failed = true
	}
	if looksLikeFailure(output) {
		failed = true
	}

	if len(output) > s.maxOutputBytes {
		output = output[:s.maxOutputBytes] + "\n... (output truncated)"
	}
	return output, failed
}

// looksLikeFailure is a heuristic: some tools report errors on stdout
// with a zero exit code. Substring matching can misfire on commands
// whose legitimate output contains these words.
func looksLikeFailure(output string) bool {
	return strings.Contains(output, "No such file") ||
		strings.Contains(output, "not found") ||
		strings.Contains(output, "Error")
}
