package domain

import (
	"context"
	"time"
)

// Confirmer asks the user a yes/no question through an external dialog.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Viewer opens a local file or an http(s) URL in the external viewer
// process. The spawn is detached and fire-and-forget.
type Viewer interface {
	Open(target string) error
}

// ContextSink receives file contents loaded into the session context by the
// bare <read> form and the preload commands.
type ContextSink interface {
	AddFile(path, content string)
}

// TranscriptStore persists the conversation transcript and an audit trail of
// executed directives. Clear is best-effort: reset must not fail because the
// store does.
type TranscriptStore interface {
	AddTranscript(ctx context.Context, role, content string) error
	RecentTranscript(ctx context.Context, limit int) ([]TranscriptEntry, error)
	ClearTranscript(ctx context.Context) error
	LogAudit(ctx context.Context, entry AuditEntry) error
	Close() error
}

// TranscriptEntry is one persisted transcript line.
type TranscriptEntry struct {
	ID        int64
	Role      string // user | assistant | tool
	Content   string
	CreatedAt time.Time
}

// AuditEntry records one security-relevant event.
type AuditEntry struct {
	Action  string // directive_exec | command_denied | confirm_yes | confirm_no
	Command string
	Result  string // ok | failed | denied | skipped
	Details string
}
