package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ApplyChange applies a change block to path. Empty old text means the
// file is created with new as its full content. Otherwise the first
// occurrence of old is replaced with new; when old does not match, the
// file is left untouched.
func (f *Files) ApplyChange(path, old, new string) error {
	if !f.guard.Permits(path) {
		return fmt.Errorf("path %s is outside the workspace", path)
	}

	old = trimEdgeNewlines(old)
	new = trimEdgeNewlines(new)

	if old == "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, []byte(new), 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", path, err)
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	content := string(data)
	idx := strings.Index(content, old)
	if idx < 0 {
		return fmt.Errorf("change on %s: old text not found", path)
	}

	updated := content[:idx] + new + content[idx+len(old):]
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// DiffView renders a before/after view of a change as removed and added
// line sections. Informational only; produced whether or not the change
// applied.
func DiffView(old, new string) string {
	var b strings.Builder

	old = trimEdgeNewlines(old)
	new = trimEdgeNewlines(new)

	if old != "" {
		for _, line := range strings.Split(old, "\n") {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if new != "" {
		for _, line := range strings.Split(new, "\n") {
			b.WriteString("+ ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// trimEdgeNewlines drops leading and trailing newlines, keeping inner
// structure and indentation intact.
func trimEdgeNewlines(s string) string {
	return strings.Trim(s, "\n")
}
