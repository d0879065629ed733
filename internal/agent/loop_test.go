package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"openagent/internal/config"
	"openagent/internal/security"
	"openagent/internal/tool"
	"openagent/internal/workspace"
)

type scriptedProvider struct {
	responses []string
	prompts   []string
}

func (p *scriptedProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.prompts) > len(p.responses) {
		return p.responses[len(p.responses)-1], nil
	}
	return p.responses[len(p.prompts)-1], nil
}

func (p *scriptedProvider) Name() string                    { return "scripted" }
func (p *scriptedProvider) Healthy(ctx context.Context) error { return nil }

type recordingViewer struct {
	opened []string
}

func (v *recordingViewer) Open(target string) error {
	v.opened = append(v.opened, target)
	return nil
}

func newTestLoop(t *testing.T, provider *scriptedProvider, maxTurns int) (*Loop, *recordingViewer, string) {
	t.Helper()
	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sec, err := security.NewEngine(config.Defaults().Security, nil, nil, logger)
	if err != nil {
		t.Fatal(err)
	}

	viewer := &recordingViewer{}
	presenter := tool.NewPresenter(viewer, t.TempDir())
	executor := tool.NewExecutor(tool.ExecutorConfig{
		Files:     tool.NewFiles(workspace.NewGuard(root), 0),
		Shell:     tool.NewShell(root, 10, 0),
		Presenter: presenter,
		Security:  sec,
		Failures:  tool.NewFailureTracker(2),
		Out:       &bytes.Buffer{},
		Logger:    logger,
	})

	loop := NewLoop(LoopConfig{
		Provider:  provider,
		Executor:  executor,
		Presenter: presenter,
		Logger:    logger,
		MaxTurns:  maxTurns,
	})
	return loop, viewer, root
}

func TestLoopPlainResponseEndsExchange(t *testing.T) {
	p := &scriptedProvider{responses: []string{"Just an answer, no tools."}}
	loop, _, _ := newTestLoop(t, p, 5)

	out, err := loop.Run(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Just an answer, no tools." {
		t.Errorf("out = %q", out)
	}
	if len(p.prompts) != 1 {
		t.Errorf("model called %d times, want 1", len(p.prompts))
	}
}

func TestLoopFeedsToolResultsBack(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		"Let me check. <run>echo canary</run>",
		"All done.",
	}}
	loop, _, _ := newTestLoop(t, p, 5)

	out, err := loop.Run(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if out != "All done." {
		t.Errorf("out = %q", out)
	}
	if len(p.prompts) != 2 {
		t.Fatalf("model called %d times, want 2", len(p.prompts))
	}

	second := p.prompts[1]
	if !strings.Contains(second, "Tool Results:") {
		t.Error("second prompt missing tool results header")
	}
	if !strings.Contains(second, "canary") {
		t.Error("second prompt missing command output")
	}
	if !strings.Contains(second, "Continue or give final response.") {
		t.Error("second prompt missing continuation instruction")
	}
}

func TestLoopTurnLimit(t *testing.T) {
	p := &scriptedProvider{responses: []string{"<run>echo again</run>"}}
	loop, _, _ := newTestLoop(t, p, 3)

	_, err := loop.Run(context.Background(), "prompt")
	if !errors.Is(err, ErrTurnLimit) {
		t.Fatalf("err = %v, want ErrTurnLimit", err)
	}
	if len(p.prompts) != 3 {
		t.Errorf("model called %d times, want exactly the turn budget", len(p.prompts))
	}
}

func TestLoopStripsMarkupFromFinalResponse(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		"Here is the file. <read path=\"gone.txt\"/> Done.",
		"The file does not exist, sorry.",
	}}
	loop, _, _ := newTestLoop(t, p, 5)

	out, err := loop.Run(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<read") {
		t.Errorf("markup not stripped: %q", out)
	}
}

func TestLoopBarePageGoesToViewer(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		"<!DOCTYPE html><html><body>dashboard</body></html>",
	}}
	loop, viewer, _ := newTestLoop(t, p, 5)

	out, err := loop.Run(context.Background(), "prompt")
	if err != nil {
		t.Fatal(err)
	}
	if len(viewer.opened) != 1 {
		t.Fatalf("viewer opened %d times, want 1", len(viewer.opened))
	}
	if !strings.Contains(out, "viewer") {
		t.Errorf("out = %q", out)
	}
}

func TestLoopProviderErrorSurfaces(t *testing.T) {
	p := &failingProvider{}
	loop, _, _ := newTestLoop(t, &scriptedProvider{responses: []string{""}}, 5)
	loop.provider = p

	if _, err := loop.Run(context.Background(), "prompt"); err == nil {
		t.Error("provider error should surface")
	}
}

type failingProvider struct{}

func (f *failingProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("connection refused")
}
func (f *failingProvider) Name() string                      { return "failing" }
func (f *failingProvider) Healthy(ctx context.Context) error { return errors.New("down") }
