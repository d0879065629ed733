package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"openagent/internal/domain"
	"openagent/internal/tool"
)

// keyFiles are preloaded into context when a project root is set, when
// they exist. They give the model its bearings in a fresh project.
var keyFiles = []string{"README.md", "CLAUDE.md", "package.json"}

const projectListingCap = 200

// Analyzer produces a project analysis report. Implemented by the
// analyze package.
type Analyzer interface {
	Analyze(ctx context.Context, root string) (reportPath string, err error)
}

// Session is the session loop: it owns the mutable state, recognizes the
// command vocabulary and drives the turn controller for everything else.
type Session struct {
	state    *State
	loop     *Loop
	prompt   *PromptBuilder
	files    *tool.Files
	analyzer Analyzer
	store    domain.TranscriptStore
	logger   *slog.Logger
}

type SessionConfig struct {
	State    *State
	Loop     *Loop
	Prompt   *PromptBuilder
	Files    *tool.Files
	Analyzer Analyzer // optional
	Store    domain.TranscriptStore
	Logger   *slog.Logger
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{
		state:    cfg.State,
		loop:     cfg.Loop,
		prompt:   cfg.Prompt,
		files:    cfg.Files,
		analyzer: cfg.Analyzer,
		store:    cfg.Store,
		logger:   cfg.Logger,
	}
}

// HandleInput processes one input unit: session commands run locally,
// everything else becomes a model turn. The returned string is what to
// show the user.
func (s *Session) HandleInput(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}

	if rest, path, found := ExtractProjectMarker(input); found {
		s.setProject(path)
		input = rest
		if input == "" {
			return fmt.Sprintf("[Project set: %s]", path), nil
		}
	}

	switch cmd := ParseCommand(input); cmd.Kind {
	case CmdClear:
		s.state.Reset(ctx)
		return "Session cleared.", nil

	case CmdProject:
		if cmd.Arg == "" {
			return fmt.Sprintf("Project root: %s", s.state.ProjectRoot()), nil
		}
		s.setProject(cmd.Arg)
		return fmt.Sprintf("[Project set: %s]", cmd.Arg), nil

	case CmdFilePreload:
		if cmd.Arg == "" {
			return "Usage: /file <path>", nil
		}
		content, err := s.files.Read(cmd.Arg)
		if err != nil {
			return "Error: " + err.Error(), nil
		}
		s.state.AddFile(cmd.Arg, content)
		return fmt.Sprintf("Loaded %s into context (%d bytes)", cmd.Arg, len(content)), nil

	case CmdAnalyze:
		if s.analyzer == nil {
			return "Analysis is not available.", nil
		}
		root := cmd.Arg
		if root == "" {
			root = s.state.ProjectRoot()
		}
		report, err := s.analyzer.Analyze(ctx, root)
		if err != nil {
			return "Error: " + err.Error(), nil
		}
		return fmt.Sprintf("Analysis written to %s", report), nil
	}

	return s.modelTurn(ctx, input)
}

func (s *Session) modelTurn(ctx context.Context, input string) (string, error) {
	s.state.AppendHistory("User", input)
	if s.store != nil {
		if err := s.store.AddTranscript(ctx, "user", input); err != nil {
			s.logger.Warn("transcript write failed", "err", err)
		}
	}

	prompt := s.prompt.Build(s.state, input)
	reply, err := s.loop.Run(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrTurnLimit) {
			reply = "[Stopped: turn limit exceeded before the exchange settled]"
		} else {
			return "", err
		}
	}

	s.state.AppendHistory("Assistant", reply)
	return reply, nil
}

// setProject switches the workspace root and preloads a directory
// listing plus any key files found at the new root.
func (s *Session) setProject(path string) {
	s.state.SetProjectRoot(path)

	entries, err := os.ReadDir(path)
	if err != nil {
		s.logger.Warn("project listing failed", "path", path, "err", err)
		return
	}

	var listing strings.Builder
	for i, e := range entries {
		if i >= projectListingCap {
			listing.WriteString("...\n")
			break
		}
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		listing.WriteString(name)
		listing.WriteString("\n")
	}
	s.state.AddFile(path+" (listing)", listing.String())

	for _, name := range keyFiles {
		full := filepath.Join(path, name)
		content, err := s.files.Read(full)
		if err != nil {
			continue
		}
		s.state.AddFile(full, content)
	}
}
