// Package workspace confines mutating operations to a directory tree. The
// check is advisory containment (a path-prefix test), not a security
// boundary: it does not defend against symlink escape.
package workspace

import (
	"path/filepath"
	"strings"
)

// Guard decides whether a path lies inside the active workspace root. The
// root is either the configured default or an explicit project override.
type Guard struct {
	defaultRoot string
	projectRoot string
}

func NewGuard(root string) *Guard {
	return &Guard{defaultRoot: canonical(root)}
}

// canonical cleans a root path and resolves symlinks when possible so that
// Permits compares like against like.
func canonical(path string) string {
	cleaned := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(cleaned); err == nil {
		return resolved
	}
	return cleaned
}

// Root returns the active workspace root: the project override when set,
// otherwise the default.
func (g *Guard) Root() string {
	if g.projectRoot != "" {
		return g.projectRoot
	}
	return g.defaultRoot
}

// SetProjectRoot overrides the workspace root. The path is not validated
// here; containment is re-checked at every use.
func (g *Guard) SetProjectRoot(path string) {
	g.projectRoot = canonical(path)
}

// ClearProjectRoot restores the default root.
func (g *Guard) ClearProjectRoot() {
	g.projectRoot = ""
}

// Permits reports whether path lies inside the active root. The path is
// resolved canonically when possible; when resolution fails (a file that
// does not exist yet) the literal cleaned path is compared instead.
func (g *Guard) Permits(path string) bool {
	root := g.Root()
	candidate := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	}
	if candidate == root {
		return true
	}
	return strings.HasPrefix(candidate, root+string(filepath.Separator))
}
