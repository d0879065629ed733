package tool

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"openagent/internal/config"
	"openagent/internal/domain"
	"openagent/internal/security"
	"openagent/internal/workspace"
)

type fakeConfirmer struct {
	answer bool
	asked  int
}

func (f *fakeConfirmer) Confirm(ctx context.Context, message string) (bool, error) {
	f.asked++
	return f.answer, nil
}

type fakeViewer struct {
	opened []string
}

func (f *fakeViewer) Open(target string) error {
	f.opened = append(f.opened, target)
	return nil
}

type fakeSink struct {
	files map[string]string
}

func (f *fakeSink) AddFile(path, content string) {
	if f.files == nil {
		f.files = make(map[string]string)
	}
	f.files[path] = content
}

func newTestExecutor(t *testing.T, confirmer domain.Confirmer) (*Executor, string, *fakeViewer, *fakeSink) {
	t.Helper()
	root := t.TempDir()
	guard := workspace.NewGuard(root)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sec, err := security.NewEngine(config.Defaults().Security, confirmer, nil, logger)
	if err != nil {
		t.Fatal(err)
	}

	viewer := &fakeViewer{}
	sink := &fakeSink{}
	exec := NewExecutor(ExecutorConfig{
		Files:     NewFiles(guard, 0),
		Shell:     NewShell(root, 10, 0),
		Presenter: NewPresenter(viewer, t.TempDir()),
		Security:  sec,
		Failures:  NewFailureTracker(2),
		Sink:      sink,
		Out:       &bytes.Buffer{},
		Logger:    logger,
	})
	return exec, root, viewer, sink
}

func TestExecuteRunDenied(t *testing.T) {
	exec, _, _, _ := newTestExecutor(t, nil)

	res := exec.Execute(context.Background(), domain.Directive{
		Kind: domain.KindRun, Command: "rm -rf /",
	})
	if res.Success {
		t.Error("denied command must not succeed")
	}
	if !strings.Contains(res.Output, "not allowed for security reasons") {
		t.Errorf("output = %q", res.Output)
	}
}

func TestExecuteRunSkipsAfterRepeatedFailures(t *testing.T) {
	exec, _, _, _ := newTestExecutor(t, nil)
	ctx := context.Background()

	d := domain.Directive{Kind: domain.KindRun, Command: "exit 1"}
	exec.Execute(ctx, d)
	exec.Execute(ctx, d)

	res := exec.Execute(ctx, d)
	if !strings.Contains(res.Output, "Skipping command") {
		t.Errorf("third attempt should be skipped, got %q", res.Output)
	}
}

func TestExecuteRunSuccessResetsFailures(t *testing.T) {
	exec, root, _, _ := newTestExecutor(t, nil)
	ctx := context.Background()

	marker := filepath.Join(root, "marker")
	d := domain.Directive{Kind: domain.KindRun, Command: "test -f " + marker}

	exec.Execute(ctx, d) // fails, no marker yet

	if err := os.WriteFile(marker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	exec.Execute(ctx, d) // succeeds, resets the counter

	if err := os.Remove(marker); err != nil {
		t.Fatal(err)
	}
	exec.Execute(ctx, d) // fails again, count back to 1

	res := exec.Execute(ctx, d)
	if strings.Contains(res.Output, "Skipping command") {
		t.Error("a success in between should have reset the counter")
	}
}

func TestExecuteCreateThenRead(t *testing.T) {
	exec, root, _, _ := newTestExecutor(t, nil)
	ctx := context.Background()

	path := filepath.Join(root, "hello.txt")
	res := exec.Execute(ctx, domain.Directive{
		Kind: domain.KindCreate, Path: path, Content: "round trip",
	})
	if !res.Success {
		t.Fatalf("create failed: %s", res.Output)
	}

	res = exec.Execute(ctx, domain.Directive{Kind: domain.KindRead, Path: path})
	if !res.Success || !strings.Contains(res.Output, "round trip") {
		t.Errorf("read output = %q", res.Output)
	}
}

func TestExecuteLoadFeedsContextSink(t *testing.T) {
	exec, root, _, sink := newTestExecutor(t, nil)
	ctx := context.Background()

	path := filepath.Join(root, "ctx.txt")
	if err := os.WriteFile(path, []byte("context payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := exec.Execute(ctx, domain.Directive{Kind: domain.KindLoad, Path: path})
	if !res.Success {
		t.Fatalf("load failed: %s", res.Output)
	}
	if sink.files[path] != "context payload" {
		t.Errorf("sink content = %q", sink.files[path])
	}
}

func TestExecuteListShowsEntries(t *testing.T) {
	exec, root, _, _ := newTestExecutor(t, nil)
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	res := exec.Execute(ctx, domain.Directive{Kind: domain.KindList, Path: root})
	if !strings.Contains(res.Output, "a.txt") || !strings.Contains(res.Output, "b.txt") {
		t.Errorf("listing missing entries: %q", res.Output)
	}
}

func TestExecuteListQuotesInjectedPath(t *testing.T) {
	exec, root, _, _ := newTestExecutor(t, nil)
	ctx := context.Background()

	pwned := filepath.Join(root, "pwned")
	res := exec.Execute(ctx, domain.Directive{
		Kind: domain.KindList, Path: root + "/x; touch " + pwned,
	})
	if res.Success {
		t.Error("listing a nonexistent path must not succeed")
	}
	if _, err := os.Stat(pwned); !os.IsNotExist(err) {
		t.Fatal("path with embedded command must not execute it")
	}
}

func TestExecuteListPathWithSpaces(t *testing.T) {
	exec, root, _, _ := newTestExecutor(t, nil)
	ctx := context.Background()

	dir := filepath.Join(root, "a b")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "inside.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := exec.Execute(ctx, domain.Directive{Kind: domain.KindList, Path: dir})
	if !res.Success {
		t.Fatalf("listing failed: %s", res.Output)
	}
	if !strings.Contains(res.Output, "inside.txt") {
		t.Errorf("listing missing entry: %q", res.Output)
	}
}

func TestShellQuote(t *testing.T) {
	cases := map[string]string{
		"/tmp/plain":     "'/tmp/plain'",
		"/tmp/a b":       "'/tmp/a b'",
		"/tmp/x; rm -rf": "'/tmp/x; rm -rf'",
		"/tmp/o'brien":   `'/tmp/o'\''brien'`,
	}
	for in, want := range cases {
		if got := shellQuote(in); got != want {
			t.Errorf("shellQuote(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExecuteDeleteConfirmed(t *testing.T) {
	confirmer := &fakeConfirmer{answer: true}
	exec, root, _, _ := newTestExecutor(t, confirmer)
	ctx := context.Background()

	path := filepath.Join(root, "doomed.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := exec.Execute(ctx, domain.Directive{Kind: domain.KindDelete, Path: path})
	if !res.Success {
		t.Fatalf("delete failed: %s", res.Output)
	}
	if confirmer.asked != 1 {
		t.Errorf("confirmer asked %d times, want 1", confirmer.asked)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be gone")
	}
}

func TestExecuteDeleteDeclined(t *testing.T) {
	confirmer := &fakeConfirmer{answer: false}
	exec, root, _, _ := newTestExecutor(t, confirmer)
	ctx := context.Background()

	path := filepath.Join(root, "survivor.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := exec.Execute(ctx, domain.Directive{Kind: domain.KindDelete, Path: path})
	if res.Success {
		t.Error("declined delete must not succeed")
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("file should still exist")
	}
}

func TestExecuteDeleteMissingIsQuiet(t *testing.T) {
	confirmer := &fakeConfirmer{answer: true}
	exec, root, _, _ := newTestExecutor(t, confirmer)
	ctx := context.Background()

	res := exec.Execute(ctx, domain.Directive{
		Kind: domain.KindDelete, Path: filepath.Join(root, "nope.txt"),
	})
	if res.Success || res.Output != "" {
		t.Errorf("missing target should fail quietly, got %+v", res)
	}
	if confirmer.asked != 0 {
		t.Error("no confirmation for a missing target")
	}
}

func TestExecuteGuiWritesTempFileAndSpawnsViewer(t *testing.T) {
	exec, _, viewer, _ := newTestExecutor(t, nil)
	ctx := context.Background()

	res := exec.Execute(ctx, domain.Directive{
		Kind: domain.KindGui, HTML: "<h1>hi</h1>",
	})
	if !res.Success {
		t.Fatalf("gui failed: %s", res.Output)
	}
	if len(viewer.opened) != 1 {
		t.Fatalf("viewer opened %d times", len(viewer.opened))
	}
	data, err := os.ReadFile(viewer.opened[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<h1>hi</h1>" {
		t.Errorf("temp file content = %q", data)
	}
}

func TestExecuteURLOpensViewer(t *testing.T) {
	exec, _, viewer, _ := newTestExecutor(t, nil)

	exec.Execute(context.Background(), domain.Directive{
		Kind: domain.KindURL, URL: "https://example.com",
	})
	if len(viewer.opened) != 1 || viewer.opened[0] != "https://example.com" {
		t.Errorf("viewer.opened = %v", viewer.opened)
	}
}

func TestExecuteEmptyFieldsAreNoOps(t *testing.T) {
	exec, _, viewer, _ := newTestExecutor(t, nil)
	ctx := context.Background()

	for _, d := range []domain.Directive{
		{Kind: domain.KindRead},
		{Kind: domain.KindRun},
		{Kind: domain.KindCreate},
		{Kind: domain.KindList},
		{Kind: domain.KindDelete},
		{Kind: domain.KindGui},
		{Kind: domain.KindURL},
	} {
		res := exec.Execute(ctx, d)
		if res.Success || res.Output != "" {
			t.Errorf("%v with empty field should be a no-op, got %+v", d.Kind, res)
		}
	}
	if len(viewer.opened) != 0 {
		t.Error("no viewer spawn for empty directives")
	}
}
