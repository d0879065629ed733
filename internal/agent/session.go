package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"openagent/internal/domain"
	"openagent/internal/tool"
	"openagent/internal/workspace"
)

const (
	defaultContextMaxBytes  = 32768
	defaultHistoryMaxBytes  = 8000
	defaultHistoryKeepBytes = 6000
)

// State owns the mutable session data: the loaded-files context, the
// flattened conversation history, the project root override and the
// command failure counters. Reset clears all of them together so stale
// counters never survive a project switch.
type State struct {
	context  string
	history  string
	failures *tool.FailureTracker
	guard    *workspace.Guard
	store    domain.TranscriptStore
	logger   *slog.Logger

	contextMax  int
	historyMax  int
	historyKeep int
}

type StateConfig struct {
	Failures    *tool.FailureTracker
	Guard       *workspace.Guard
	Store       domain.TranscriptStore // optional
	Logger      *slog.Logger
	ContextMax  int
	HistoryMax  int
	HistoryKeep int
}

func NewState(cfg StateConfig) *State {
	if cfg.ContextMax <= 0 {
		cfg.ContextMax = defaultContextMaxBytes
	}
	if cfg.HistoryMax <= 0 {
		cfg.HistoryMax = defaultHistoryMaxBytes
	}
	if cfg.HistoryKeep <= 0 {
		cfg.HistoryKeep = defaultHistoryKeepBytes
	}
	if cfg.HistoryKeep > cfg.HistoryMax {
		cfg.HistoryKeep = cfg.HistoryMax
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &State{
		failures:    cfg.Failures,
		guard:       cfg.Guard,
		store:       cfg.Store,
		logger:      cfg.Logger,
		contextMax:  cfg.ContextMax,
		historyMax:  cfg.HistoryMax,
		historyKeep: cfg.HistoryKeep,
	}
}

// AddFile appends a file snippet to the context buffer. Implements the
// context sink used by the bare read form and the preload commands.
func (s *State) AddFile(path, content string) {
	s.context += fmt.Sprintf("--- %s ---\n%s\n", path, content)
	if len(s.context) > s.contextMax {
		// Tail retention: the most recently loaded files survive.
		s.context = s.context[len(s.context)-s.contextMax:]
	}
}

// AppendHistory adds one exchange line to the flattened history and
// trims the oldest prefix once the buffer passes its ceiling.
func (s *State) AppendHistory(role, content string) {
	s.history += role + ": " + content + "\n"
	if len(s.history) > s.historyMax {
		s.history = s.history[len(s.history)-s.historyKeep:]
	}
}

func (s *State) Context() string { return s.context }
func (s *State) History() string { return s.history }

// SetProjectRoot redirects the workspace guard to path. The path is
// validated lazily, by the guard, when a directive actually uses it.
func (s *State) SetProjectRoot(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	s.guard.SetProjectRoot(path)
	s.logger.Info("project root set", "path", path)
}

func (s *State) ProjectRoot() string { return s.guard.Root() }

// Reset clears context, history, project root and failure counters in
// one step, and best-effort removes the persisted transcript.
func (s *State) Reset(ctx context.Context) {
	s.context = ""
	s.history = ""
	s.guard.ClearProjectRoot()
	if s.failures != nil {
		s.failures.Reset()
	}
	if s.store != nil {
		if err := s.store.ClearTranscript(ctx); err != nil {
			s.logger.Warn("transcript clear failed", "err", err)
		}
	}
	s.logger.Info("session state cleared")
}
