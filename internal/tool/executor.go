package tool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"openagent/internal/domain"
	"openagent/internal/metrics"
	"openagent/internal/security"
)

// Executor dispatches parsed directives to the individual tools and
// turns every outcome into an ExecutionResult. Failures become inline
// text in the result, never a panic or an aborted turn.
type Executor struct {
	files     *Files
	shell     *Shell
	presenter *Presenter
	sec       *security.Engine
	failures  *FailureTracker
	sink      domain.ContextSink
	out       io.Writer
	logger    *slog.Logger
}

type ExecutorConfig struct {
	Files     *Files
	Shell     *Shell
	Presenter *Presenter
	Security  *security.Engine
	Failures  *FailureTracker
	Sink      domain.ContextSink
	Out       io.Writer
	Logger    *slog.Logger
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Executor{
		files:     cfg.Files,
		shell:     cfg.Shell,
		presenter: cfg.Presenter,
		sec:       cfg.Security,
		failures:  cfg.Failures,
		sink:      cfg.Sink,
		out:       cfg.Out,
		logger:    cfg.Logger,
	}
}

// Execute runs a single directive. Directives with an empty required
// field are silent no-ops.
func (e *Executor) Execute(ctx context.Context, d domain.Directive) domain.ExecutionResult {
	switch d.Kind {
	case domain.KindList:
		return e.list(ctx, d)
	case domain.KindLoad:
		return e.load(d)
	case domain.KindRead:
		return e.read(d)
	case domain.KindRun:
		return e.run(ctx, d)
	case domain.KindCreate:
		return e.create(d)
	case domain.KindEdit:
		return e.edit(d)
	case domain.KindChange:
		return e.change(d)
	case domain.KindGui:
		return e.gui(d)
	case domain.KindURL:
		return e.url(d)
	case domain.KindDelete:
		return e.delete(ctx, d)
	}
	return domain.ExecutionResult{Directive: d, Success: false}
}

func (e *Executor) status(format string, args ...any) {
	fmt.Fprintf(e.out, format+"\n", args...)
}

func (e *Executor) list(ctx context.Context, d domain.Directive) domain.ExecutionResult {
	if d.Path == "" {
		return domain.ExecutionResult{Directive: d}
	}
	e.status("[Listing: %s]", d.Path)

	if !e.files.guard.Permits(d.Path) {
		msg := fmt.Sprintf("Error: path %s is outside the workspace", d.Path)
		return domain.ExecutionResult{Directive: d, Output: msg}
	}

	// The path is model-supplied and must reach the shell as a single
	// quoted word; unquoted it would be an injection point.
	command := "ls -la " + shellQuote(d.Path)
	if e.sec != nil && !e.sec.Permits(ctx, command) {
		msg := fmt.Sprintf("Command not allowed for security reasons: %s", command)
		e.status("[Denied: %s]", command)
		return domain.ExecutionResult{Directive: d, Output: msg}
	}

	output, failed := e.shell.Run(ctx, command)
	return domain.ExecutionResult{
		Directive: d,
		Success:   !failed,
		Output:    fmt.Sprintf("Listing of %s:\n%s", d.Path, output),
	}
}

// shellQuote wraps s in single quotes, escaping embedded single quotes,
// so the shell treats it as one literal word.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// load handles the container form <read>path</read>: the file content
// goes into the session context instead of the tool-output buffer.
func (e *Executor) load(d domain.Directive) domain.ExecutionResult {
	if d.Path == "" {
		return domain.ExecutionResult{Directive: d}
	}
	e.status("[Loading: %s]", d.Path)

	content, err := e.files.Read(d.Path)
	if err != nil {
		e.logger.Warn("load failed", "path", d.Path, "error", err)
		return domain.ExecutionResult{Directive: d, Output: "Error: " + err.Error()}
	}

	if e.sink != nil {
		e.sink.AddFile(d.Path, content)
	}
	return domain.ExecutionResult{
		Directive:  d,
		Success:    true,
		Output:     fmt.Sprintf("Loaded %s into context (%d bytes)", d.Path, len(content)),
		SideEffect: "context updated",
	}
}

// read handles the attribute form <read path="p"/>: the file content is
// returned inline for the model to see next turn.
func (e *Executor) read(d domain.Directive) domain.ExecutionResult {
	if d.Path == "" {
		return domain.ExecutionResult{Directive: d}
	}
	e.status("[Reading: %s]", d.Path)

	content, err := e.files.Read(d.Path)
	if err != nil {
		e.logger.Warn("read failed", "path", d.Path, "error", err)
		return domain.ExecutionResult{Directive: d, Output: "Error: " + err.Error()}
	}
	return domain.ExecutionResult{
		Directive: d,
		Success:   true,
		Output:    fmt.Sprintf("Content of %s:\n%s", d.Path, content),
	}
}

func (e *Executor) run(ctx context.Context, d domain.Directive) domain.ExecutionResult {
	if d.Command == "" {
		return domain.ExecutionResult{Directive: d}
	}
	e.status("[Running: %s]", d.Command)

	if e.sec != nil && !e.sec.Permits(ctx, d.Command) {
		metrics.Default.Counter("openagent_commands_denied_total",
			"Commands rejected by the deny list", "").Inc()
		msg := fmt.Sprintf("Command not allowed for security reasons: %s", d.Command)
		e.status("[Denied: %s]", d.Command)
		return domain.ExecutionResult{Directive: d, Output: msg}
	}

	if e.failures.Blocked(d.Command) {
		msg := fmt.Sprintf("Skipping command (failed repeatedly): %s", d.Command)
		e.status("[Skipped: %s]", d.Command)
		return domain.ExecutionResult{Directive: d, Output: msg}
	}

	output, failed := e.shell.Run(ctx, d.Command)
	if failed {
		metrics.Default.Counter("openagent_commands_failed_total",
			"Shell commands that failed or looked like failures", "").Inc()
		e.failures.RecordFailure(d.Command)
	} else {
		e.failures.RecordSuccess(d.Command)
	}
	return domain.ExecutionResult{
		Directive:  d,
		Success:    !failed,
		Output:     fmt.Sprintf("Output of '%s':\n%s", d.Command, output),
		SideEffect: "shell command executed",
	}
}

func (e *Executor) create(d domain.Directive) domain.ExecutionResult {
	if d.Path == "" {
		return domain.ExecutionResult{Directive: d}
	}

	if err := e.files.Create(d.Path, d.Content); err != nil {
		e.status("[Error creating %s]", d.Path)
		return domain.ExecutionResult{Directive: d, Output: "Error: " + err.Error()}
	}
	e.status("[Created %s]", d.Path)
	return domain.ExecutionResult{
		Directive:  d,
		Success:    true,
		Output:     fmt.Sprintf("Created %s (%d bytes)", d.Path, len(d.Content)),
		SideEffect: "file created",
	}
}

func (e *Executor) edit(d domain.Directive) domain.ExecutionResult {
	if d.Path == "" {
		return domain.ExecutionResult{Directive: d}
	}

	if err := e.files.Edit(d.Path, d.Old, d.New); err != nil {
		e.status("[Error editing %s]", d.Path)
		return domain.ExecutionResult{Directive: d, Output: "Error: " + err.Error()}
	}
	e.status("[Edited %s]", d.Path)
	return domain.ExecutionResult{
		Directive:  d,
		Success:    true,
		Output:     fmt.Sprintf("Edited %s", d.Path),
		SideEffect: "file edited",
	}
}

func (e *Executor) change(d domain.Directive) domain.ExecutionResult {
	if d.Path == "" {
		return domain.ExecutionResult{Directive: d}
	}

	// The diff view is informational and shown whether or not the
	// change applies cleanly.
	fmt.Fprint(e.out, DiffView(d.Old, d.New))

	if err := e.files.ApplyChange(d.Path, d.Old, d.New); err != nil {
		e.status("[Error changing %s]", d.Path)
		return domain.ExecutionResult{Directive: d, Output: "Error: " + err.Error()}
	}
	e.status("[Changed %s]", d.Path)
	return domain.ExecutionResult{
		Directive:  d,
		Success:    true,
		Output:     fmt.Sprintf("Applied change to %s: %s", d.Path, d.Description),
		SideEffect: "file changed",
	}
}

func (e *Executor) gui(d domain.Directive) domain.ExecutionResult {
	if d.HTML == "" {
		return domain.ExecutionResult{Directive: d}
	}

	path, err := e.presenter.ShowHTML(d.HTML)
	if err != nil {
		e.logger.Warn("gui render failed", "error", err)
		return domain.ExecutionResult{Directive: d, Output: "Error: " + err.Error()}
	}
	e.status("[Opened viewer: %s]", path)
	return domain.ExecutionResult{
		Directive:  d,
		Success:    true,
		SideEffect: "viewer spawned",
	}
}

func (e *Executor) url(d domain.Directive) domain.ExecutionResult {
	if d.URL == "" {
		return domain.ExecutionResult{Directive: d}
	}

	e.status("[Opening URL: %s]", d.URL)
	if err := e.presenter.ShowURL(d.URL); err != nil {
		e.logger.Warn("url open failed", "url", d.URL, "error", err)
	}
	return domain.ExecutionResult{
		Directive:  d,
		Success:    true,
		SideEffect: "viewer spawned",
	}
}

func (e *Executor) delete(ctx context.Context, d domain.Directive) domain.ExecutionResult {
	if d.Path == "" {
		return domain.ExecutionResult{Directive: d}
	}

	info, err := e.files.Stat(d.Path)
	if err != nil {
		// Missing or out-of-workspace target: quiet failure.
		return domain.ExecutionResult{Directive: d, Success: false}
	}

	ok, err := e.sec.RequestConfirmation(ctx, fmt.Sprintf("Delete %s?", d.Path))
	if err != nil {
		e.logger.Warn("confirmation failed", "path", d.Path, "error", err)
		return domain.ExecutionResult{Directive: d, Success: false}
	}
	if !ok {
		e.status("[Delete declined: %s]", d.Path)
		return domain.ExecutionResult{Directive: d, Success: false, Output: fmt.Sprintf("Deletion of %s declined", d.Path)}
	}

	if err := e.files.Remove(d.Path, info.IsDir()); err != nil {
		e.status("[Error deleting %s]", d.Path)
		return domain.ExecutionResult{Directive: d, Output: "Error: " + err.Error()}
	}
	e.status("[Deleted %s]", d.Path)
	return domain.ExecutionResult{
		Directive:  d,
		Success:    true,
		Output:     fmt.Sprintf("Deleted %s", d.Path),
		SideEffect: "file deleted",
	}
}
