package agent

import (
	"strings"

	"openagent/internal/domain"
	"openagent/internal/tagscan"
)

// Parse extracts directives from a raw model response in a fixed scan
// priority: list, bare read, run (all occurrences each), then the
// attribute-form kinds (first match only), then change blocks (all).
// The priority is fixed; response order does not matter.
func Parse(text string) []domain.Directive {
	var directives []domain.Directive

	tagscan.EachBare(text, "list", func(path string) {
		directives = append(directives, domain.Directive{
			Kind: domain.KindList, Path: strings.TrimSpace(path),
		})
	})

	// Bare form <read>path</read> loads into the session context. The
	// attribute form below returns content inline instead.
	tagscan.EachBare(text, "read", func(path string) {
		directives = append(directives, domain.Directive{
			Kind: domain.KindLoad, Path: strings.TrimSpace(path),
		})
	})

	tagscan.EachBare(text, "run", func(command string) {
		directives = append(directives, domain.Directive{
			Kind: domain.KindRun, Command: strings.TrimSpace(command),
		})
	})

	if path, ok := tagscan.Attribute(text, "read", "path"); ok {
		directives = append(directives, domain.Directive{
			Kind: domain.KindRead, Path: strings.TrimSpace(path),
		})
	}

	if path, ok := tagscan.Attribute(text, "create", "path"); ok {
		content, _ := tagscan.Content(text, "create")
		directives = append(directives, domain.Directive{
			Kind: domain.KindCreate, Path: strings.TrimSpace(path), Content: content,
		})
	}

	if path, ok := tagscan.Attribute(text, "edit", "path"); ok {
		if body, ok := tagscan.Content(text, "edit"); ok {
			old, _ := tagscan.Content(body, "old")
			new, _ := tagscan.Content(body, "new")
			directives = append(directives, domain.Directive{
				Kind: domain.KindEdit, Path: strings.TrimSpace(path), Old: old, New: new,
			})
		}
	}

	if html, ok := tagscan.Content(text, "gui"); ok {
		directives = append(directives, domain.Directive{
			Kind: domain.KindGui, HTML: html,
		})
	}

	if url, ok := tagscan.Content(text, "url"); ok {
		directives = append(directives, domain.Directive{
			Kind: domain.KindURL, URL: strings.TrimSpace(url),
		})
	}

	if path, ok := tagscan.Attribute(text, "delete", "path"); ok {
		directives = append(directives, domain.Directive{
			Kind: domain.KindDelete, Path: strings.TrimSpace(path),
		})
	}

	for _, block := range tagscan.Blocks(text, "change") {
		file, ok := tagscan.Attribute(block, "change", "file")
		if !ok || strings.TrimSpace(file) == "" {
			continue
		}
		description, _ := tagscan.Content(block, "description")
		old, _ := tagscan.Content(block, "old")
		new, hasNew := tagscan.Content(block, "new")
		if !hasNew {
			continue
		}
		directives = append(directives, domain.Directive{
			Kind:        domain.KindChange,
			Path:        strings.TrimSpace(file),
			Description: strings.TrimSpace(description),
			Old:         old,
			New:         new,
		})
	}

	return directives
}

// HasChangeBlocks reports whether the response carries at least one
// complete change block. Change-only responses still trigger a feedback
// turn even when the tool-output buffer stays empty.
func HasChangeBlocks(text string) bool {
	return len(tagscan.Blocks(text, "change")) > 0
}

// LooksLikeBarePage detects a response that is itself a full HTML page
// without being wrapped in a gui directive. Such responses go straight
// to the viewer instead of the terminal.
func LooksLikeBarePage(text string) bool {
	if _, ok := tagscan.Content(text, "gui"); ok {
		return false
	}
	return strings.Contains(text, "<!DOCTYPE") || strings.Contains(text, "<html")
}
