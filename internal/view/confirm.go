package view

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// DialogConfirmer runs an external yes/no dialog (zenity by default).
// Exit code 0 means confirmed; any nonzero exit is a decline.
// Implements domain.Confirmer.
type DialogConfirmer struct {
	argv   []string // message is appended as the final argument
	logger *slog.Logger
}

func NewDialogConfirmer(argv []string, logger *slog.Logger) *DialogConfirmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DialogConfirmer{argv: argv, logger: logger}
}

func (d *DialogConfirmer) Confirm(ctx context.Context, message string) (bool, error) {
	if len(d.argv) == 0 {
		return false, fmt.Errorf("no confirmation dialog configured")
	}

	args := append(append([]string(nil), d.argv[1:]...), message)
	cmd := exec.CommandContext(ctx, d.argv[0], args...)

	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if _, isExit := err.(*exec.ExitError); isExit {
		// Dialog ran and the user said no (or closed it).
		return false, nil
	}
	return false, fmt.Errorf("confirmation dialog failed: %w", err)
}
