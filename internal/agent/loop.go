package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"openagent/internal/domain"
	"openagent/internal/metrics"
	"openagent/internal/tagscan"
	"openagent/internal/tool"
)

const defaultMaxTurns = 20

// ErrTurnLimit reports that a tool exchange was still producing output
// when the turn budget ran out. The session survives; only the current
// exchange ends.
var ErrTurnLimit = errors.New("turn limit exceeded")

// Loop is the turn controller: send prompt, parse directives, execute,
// feed results back, until a response uses no tools or the budget runs out.
type Loop struct {
	provider  domain.Provider
	executor  *tool.Executor
	presenter *tool.Presenter
	store     domain.TranscriptStore
	logger    *slog.Logger
	maxTurns  int

	turnsTotal   *metrics.Counter
	modelLatency *metrics.Histogram
}

type LoopConfig struct {
	Provider  domain.Provider
	Executor  *tool.Executor
	Presenter *tool.Presenter
	Store     domain.TranscriptStore // optional
	Logger    *slog.Logger
	MaxTurns  int
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = defaultMaxTurns
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loop{
		provider:  cfg.Provider,
		executor:  cfg.Executor,
		presenter: cfg.Presenter,
		store:     cfg.Store,
		logger:    cfg.Logger,
		maxTurns:  cfg.MaxTurns,
		turnsTotal: metrics.Default.Counter(
			"openagent_turns_total", "Model turns executed", ""),
		modelLatency: metrics.Default.Histogram(
			"openagent_model_latency_seconds", "Model completion latency", "", nil),
	}
}

// Run drives one full exchange starting from prompt. The returned text
// is what should be shown to the user: the final response with directive
// markup stripped, or a viewer notice for bare HTML pages.
func (l *Loop) Run(ctx context.Context, prompt string) (string, error) {
	current := prompt

	for turn := 1; turn <= l.maxTurns; turn++ {
		l.turnsTotal.Inc()

		start := time.Now()
		response, err := l.provider.Complete(ctx, current)
		l.modelLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}
		l.record(ctx, "assistant", response)

		directives := Parse(response)
		l.logger.Debug("turn executed",
			"turn", turn, "directives", len(directives), "response_bytes", len(response))

		var toolOut strings.Builder
		for _, d := range directives {
			metrics.Default.Counter("openagent_directives_total",
				"Directives executed", `kind="`+string(d.Kind)+`"`).Inc()
			res := l.executor.Execute(ctx, d)
			if res.Output != "" {
				toolOut.WriteString(res.Output)
				toolOut.WriteString("\n")
			}
		}

		if toolOut.Len() == 0 && !HasChangeBlocks(response) {
			return l.present(response), nil
		}

		feedback := "Tool Results:\n" + toolOut.String() + "\nContinue or give final response."
		l.record(ctx, "tool", toolOut.String())
		current = current + response + "\n\n" + feedback + "\n"
	}

	l.logger.Warn("turn limit reached", "max_turns", l.maxTurns)
	return "", ErrTurnLimit
}

// present prepares the final response for display. A response that is
// itself a full HTML page goes to the viewer instead of the terminal.
func (l *Loop) present(response string) string {
	if l.presenter != nil && LooksLikeBarePage(response) {
		if path, err := l.presenter.ShowHTML(response); err == nil {
			return fmt.Sprintf("[Rendered response in viewer: %s]", path)
		}
	}
	return tagscan.StripTags(response)
}

func (l *Loop) record(ctx context.Context, role, content string) {
	if l.store == nil || content == "" {
		return
	}
	if err := l.store.AddTranscript(ctx, role, content); err != nil {
		l.logger.Warn("transcript write failed", "err", err)
	}
}
