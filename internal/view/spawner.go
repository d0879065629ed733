// Package view handles everything around the external viewer process:
// detached spawning, the yes/no confirmation dialog, the navigation
// history log and optional page-title resolution.
package view

import (
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
)

// ExecSpawner launches the external viewer binary detached from the
// agent process. Implements domain.Viewer. The child gets its own
// session so it survives the agent and never holds the terminal.
type ExecSpawner struct {
	command string
	history *HistoryLog // optional
	titler  Titler      // optional
	logger  *slog.Logger
}

// Titler resolves a page title for a URL, best effort.
type Titler interface {
	Title(url string) string
}

func NewExecSpawner(command string, history *HistoryLog, titler Titler, logger *slog.Logger) *ExecSpawner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecSpawner{
		command: command,
		history: history,
		titler:  titler,
		logger:  logger,
	}
}

// Open spawns the viewer on target (a file path or URL), fire-and-forget.
// URLs are also appended to the navigation history log.
func (s *ExecSpawner) Open(target string) error {
	if s.command == "" {
		return fmt.Errorf("no viewer command configured")
	}

	cmd := exec.Command(s.command, target)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("viewer spawn failed: %w", err)
	}
	// Release the child; the signal-driven reaper collects it.
	if err := cmd.Process.Release(); err != nil {
		s.logger.Warn("viewer process release failed", "err", err)
	}

	if s.history != nil && isURL(target) {
		title := ""
		if s.titler != nil {
			title = s.titler.Title(target)
		}
		if err := s.history.Append(target, title); err != nil {
			s.logger.Warn("history append failed", "err", err)
		}
	}

	s.logger.Debug("viewer spawned", "target", target)
	return nil
}

func isURL(target string) bool {
	return len(target) > 7 && (target[:7] == "http://" || (len(target) > 8 && target[:8] == "https://"))
}
