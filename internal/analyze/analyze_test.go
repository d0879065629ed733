package analyze

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"openagent/internal/workspace"
)

type cannedProvider struct {
	lastPrompt string
	response   string
}

func (p *cannedProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.lastPrompt = prompt
	return p.response, nil
}
func (p *cannedProvider) Name() string                      { return "canned" }
func (p *cannedProvider) Healthy(ctx context.Context) error { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	mustWrite(t, filepath.Join(root, "README.md"), "# Demo project\n")
	mustWrite(t, filepath.Join(root, "main.go"), "package main\n")
	mustWrite(t, filepath.Join(root, "lib", "util.go"), "package lib\n")
	mustWrite(t, filepath.Join(root, ".git", "config"), "[core]\n")
	mustWrite(t, filepath.Join(root, "node_modules", "x", "index.js"), "x\n")
	return root
}

func TestAnalyzeWritesReport(t *testing.T) {
	root := setupProject(t)
	provider := &cannedProvider{response: "A small Go demo."}
	a := New(provider, workspace.NewGuard(root), nil, quietLogger())

	report, err := a.Analyze(context.Background(), root)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report != filepath.Join(root, "PROJECT_ANALYSIS.md") {
		t.Errorf("report path = %q", report)
	}

	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "A small Go demo.") {
		t.Errorf("report content = %q", data)
	}
}

func TestAnalyzeSummaryContents(t *testing.T) {
	root := setupProject(t)
	provider := &cannedProvider{response: "ok"}
	a := New(provider, workspace.NewGuard(root), nil, quietLogger())

	if _, err := a.Analyze(context.Background(), root); err != nil {
		t.Fatal(err)
	}

	prompt := provider.lastPrompt
	for _, want := range []string{"main.go", "lib/util.go", "# Demo project", ".go: 2"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	for _, banned := range []string{".git", "node_modules"} {
		if strings.Contains(prompt, banned) {
			t.Errorf("prompt should not mention %q", banned)
		}
	}
}

func TestAnalyzeExtraIgnores(t *testing.T) {
	root := setupProject(t)
	mustWrite(t, filepath.Join(root, "secrets.env"), "KEY=1\n")

	provider := &cannedProvider{response: "ok"}
	a := New(provider, workspace.NewGuard(root), []string{"**/*.env"}, quietLogger())

	if _, err := a.Analyze(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(provider.lastPrompt, "secrets.env") {
		t.Error("extra ignore pattern not applied")
	}
}

func TestAnalyzeOutsideWorkspace(t *testing.T) {
	provider := &cannedProvider{response: "ok"}
	a := New(provider, workspace.NewGuard(t.TempDir()), nil, quietLogger())

	if _, err := a.Analyze(context.Background(), t.TempDir()); err == nil {
		t.Error("analysis outside the workspace should fail")
	}
}

func TestAnalyzeMissingRoot(t *testing.T) {
	root := t.TempDir()
	provider := &cannedProvider{response: "ok"}
	a := New(provider, workspace.NewGuard(root), nil, quietLogger())

	if _, err := a.Analyze(context.Background(), filepath.Join(root, "gone")); err == nil {
		t.Error("missing root should fail")
	}
	if _, err := a.Analyze(context.Background(), ""); err == nil {
		t.Error("empty root should fail")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
