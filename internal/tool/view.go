package tool

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"openagent/internal/domain"
)

// Presenter hands HTML payloads and URLs to the external viewer.
// Each HTML payload gets a fresh temp file with an increasing counter
// so concurrent viewer windows never clobber each other.
type Presenter struct {
	viewer  domain.Viewer
	tmpDir  string
	counter atomic.Int64
}

func NewPresenter(viewer domain.Viewer, tmpDir string) *Presenter {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Presenter{viewer: viewer, tmpDir: tmpDir}
}

// ShowHTML writes html to a new temp file and opens the viewer on it.
// Returns the file path. Viewer spawn failures are not fatal; the file
// is still on disk for manual inspection.
func (p *Presenter) ShowHTML(html string) (string, error) {
	n := p.counter.Add(1)
	path := filepath.Join(p.tmpDir, fmt.Sprintf("openagent-ui-%d.html", n))

	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("cannot write %s: %w", path, err)
	}

	if p.viewer != nil {
		_ = p.viewer.Open(path)
	}
	return path, nil
}

// ShowURL opens the viewer directly on url, no temp file.
func (p *Presenter) ShowURL(url string) error {
	if p.viewer == nil {
		return fmt.Errorf("no viewer configured")
	}
	return p.viewer.Open(url)
}
