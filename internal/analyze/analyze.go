// Package analyze walks a project tree, builds a structural summary and
// asks the model for a one-shot assessment, written to PROJECT_ANALYSIS.md
// at the project root.
package analyze

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"openagent/internal/domain"
	"openagent/internal/workspace"
)

const (
	maxFilesListed   = 400
	maxSampleBytes   = 2048
	reportFileName   = "PROJECT_ANALYSIS.md"
	analysisPreamble = "Analyze this project. Summarize its purpose, structure, main components and anything unusual. Be concise.\n\n"
)

// defaultIgnores skip trees that add bulk without insight.
var defaultIgnores = []string{
	"**/.git", "**/.git/**",
	"**/node_modules", "**/node_modules/**",
	"**/vendor", "**/vendor/**",
	"**/target", "**/target/**",
	"**/dist", "**/dist/**",
	"**/build", "**/build/**",
	"**/__pycache__", "**/__pycache__/**",
	"**/*.min.js",
}

// sampleFiles get their head inlined into the summary when present.
var sampleFiles = []string{"README.md", "go.mod", "package.json", "Makefile", "Cargo.toml", "pyproject.toml"}

// Analyzer crawls a project and produces the analysis report.
type Analyzer struct {
	provider domain.Provider
	guard    *workspace.Guard
	ignores  []string
	logger   *slog.Logger
}

func New(provider domain.Provider, guard *workspace.Guard, extraIgnores []string, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		provider: provider,
		guard:    guard,
		ignores:  append(append([]string(nil), defaultIgnores...), extraIgnores...),
		logger:   logger,
	}
}

// Analyze walks root, sends the summary to the model and writes the
// response to PROJECT_ANALYSIS.md inside root. Returns the report path.
func (a *Analyzer) Analyze(ctx context.Context, root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", fmt.Errorf("no project root to analyze")
	}
	if !a.guard.Permits(root) {
		return "", fmt.Errorf("path %s is outside the workspace", root)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("cannot analyze %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}

	summary, err := a.summarize(root)
	if err != nil {
		return "", err
	}

	a.logger.Info("analyzing project", "root", root, "summary_bytes", len(summary))
	analysis, err := a.provider.Complete(ctx, analysisPreamble+summary)
	if err != nil {
		return "", fmt.Errorf("analysis model call failed: %w", err)
	}

	report := filepath.Join(root, reportFileName)
	content := fmt.Sprintf("# Project Analysis\n\n%s\n", strings.TrimSpace(analysis))
	if err := os.WriteFile(report, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("cannot write report: %w", err)
	}
	return report, nil
}

// summarize builds the textual project overview: a file inventory per
// extension, the tree listing and the head of well-known files.
func (a *Analyzer) summarize(root string) (string, error) {
	var files []string
	extCount := make(map[string]int)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if a.ignored(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, rel)
		ext := filepath.Ext(rel)
		if ext == "" {
			ext = "(none)"
		}
		extCount[ext]++
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)

	var b strings.Builder
	fmt.Fprintf(&b, "Project root: %s\nTotal files: %d\n\n", root, len(files))

	b.WriteString("Files by extension:\n")
	exts := make([]string, 0, len(extCount))
	for ext := range extCount {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		fmt.Fprintf(&b, "  %s: %d\n", ext, extCount[ext])
	}

	b.WriteString("\nFile tree:\n")
	for i, f := range files {
		if i >= maxFilesListed {
			fmt.Fprintf(&b, "  ... and %d more\n", len(files)-maxFilesListed)
			break
		}
		b.WriteString("  " + f + "\n")
	}

	for _, name := range sampleFiles {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		if len(data) > maxSampleBytes {
			data = data[:maxSampleBytes]
		}
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", name, data)
	}

	return b.String(), nil
}

func (a *Analyzer) ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range a.ignores {
		match, err := doublestar.PathMatch(pattern, rel)
		if err != nil {
			a.logger.Warn("invalid ignore pattern", "pattern", pattern, "err", err)
			continue
		}
		if match {
			return true
		}
	}
	return false
}
