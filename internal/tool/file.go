package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"openagent/internal/workspace"
)

const defaultReadMaxBytes = 65536

// Files implements the read, list, create and edit operations. Every
// mutating operation checks the workspace guard before touching disk.
type Files struct {
	guard    *workspace.Guard
	maxBytes int
}

func NewFiles(guard *workspace.Guard, maxBytes int) *Files {
	if maxBytes <= 0 {
		maxBytes = defaultReadMaxBytes
	}
	return &Files{guard: guard, maxBytes: maxBytes}
}

// Read returns the file content, truncated above the byte cap with an
// elided-byte marker.
func (f *Files) Read(path string) (string, error) {
	if !f.guard.Permits(path) {
		return "", fmt.Errorf("path %s is outside the workspace", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}

	if len(data) > f.maxBytes {
		elided := len(data) - f.maxBytes
		return string(data[:f.maxBytes]) + fmt.Sprintf("\n[... %d bytes elided]", elided), nil
	}
	return string(data), nil
}

// Create writes content to path, creating parent directories as needed.
// An existing file is overwritten.
func (f *Files) Create(path, content string) error {
	if !f.guard.Permits(path) {
		return fmt.Errorf("path %s is outside the workspace", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// Edit replaces the first byte-exact occurrence of old with new.
// An empty old text is rejected as ambiguous.
func (f *Files) Edit(path, old, new string) error {
	if !f.guard.Permits(path) {
		return fmt.Errorf("path %s is outside the workspace", path)
	}
	if old == "" {
		return fmt.Errorf("edit on %s: old text is empty", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	content := string(data)
	idx := strings.Index(content, old)
	if idx < 0 {
		return fmt.Errorf("edit on %s: text not found", path)
	}

	updated := content[:idx] + new + content[idx+len(old):]
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}
