// Package security gates shell commands and destructive operations. Commands
// matching a deny pattern are rejected outright; deletions go through an
// external confirmation dialog.
package security

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"openagent/internal/config"
	"openagent/internal/domain"
)

// Engine evaluates commands against the deny list and routes confirmation
// requests to the external dialog collaborator.
type Engine struct {
	cfg       config.SecurityConfig
	confirmer domain.Confirmer
	audit     AuditLogger
	logger    *slog.Logger

	denyRe []*regexp.Regexp
}

// AuditLogger receives security-relevant events. The transcript store
// implements it.
type AuditLogger interface {
	LogAudit(ctx context.Context, entry domain.AuditEntry) error
}

func NewEngine(cfg config.SecurityConfig, confirmer domain.Confirmer, audit AuditLogger, logger *slog.Logger) (*Engine, error) {
	denyRe, err := compilePatterns(cfg.DenyPatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid deny pattern: %w", err)
	}
	return &Engine{
		cfg:       cfg,
		confirmer: confirmer,
		audit:     audit,
		logger:    logger,
		denyRe:    denyRe,
	}, nil
}

// Permits reports whether the command passes the deny list. A denied command
// is audited; the caller never runs it.
func (e *Engine) Permits(ctx context.Context, command string) bool {
	cmd := strings.TrimSpace(command)
	for _, re := range e.denyRe {
		if re.MatchString(cmd) {
			e.logger.Warn("command denied", "command", cmd, "pattern", re.String())
			e.logAction(ctx, "command_denied", cmd, "denied", "deny pattern: "+re.String())
			return false
		}
	}
	return true
}

// RequestConfirmation asks the external dialog whether the action should
// proceed. With no dialog configured the answer is no.
func (e *Engine) RequestConfirmation(ctx context.Context, message string) (bool, error) {
	if e.confirmer == nil {
		e.logAction(ctx, "confirm_no", message, "denied", "no confirmation dialog configured")
		return false, nil
	}

	confirmed, err := e.confirmer.Confirm(ctx, message)
	if err != nil {
		e.logAction(ctx, "confirm_no", message, "denied", "confirmation error: "+err.Error())
		return false, err
	}
	if confirmed {
		e.logAction(ctx, "confirm_yes", message, "confirmed", "user confirmed")
	} else {
		e.logAction(ctx, "confirm_no", message, "denied", "user declined")
	}
	return confirmed, nil
}

func (e *Engine) logAction(ctx context.Context, action, command, result, details string) {
	if !e.cfg.AuditLog || e.audit == nil {
		return
	}
	if err := e.audit.LogAudit(ctx, domain.AuditEntry{
		Action:  action,
		Command: command,
		Result:  result,
		Details: details,
	}); err != nil {
		e.logger.Warn("audit write failed", "err", err)
	}
}

// compilePatterns turns configured patterns into regexps. Plain strings
// become case-insensitive substring matches; anything containing regex
// metacharacters compiles as written.
func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		var re *regexp.Regexp
		var err error
		if isRegex(p) {
			re, err = regexp.Compile(p)
		} else {
			re, err = regexp.Compile(`(?i)` + regexp.QuoteMeta(p))
		}
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func isRegex(s string) bool {
	for _, c := range s {
		switch c {
		case '(', ')', '[', ']', '{', '}', '|', '^', '$', '.', '*', '+', '?', '\\':
			return true
		}
	}
	return false
}
