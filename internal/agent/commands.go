package agent

import (
	"regexp"
	"strings"
)

// CommandKind identifies a session command recognized before input is
// treated as a model turn.
type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdClear
	CmdProject
	CmdFilePreload
	CmdAnalyze
)

// Command is one parsed session command.
type Command struct {
	Kind CommandKind
	Arg  string
}

var clearWords = []string{"clear", "reset", "forget"}

var analyzeWords = []string{"analyze", "analyse", "crawl"}

// projectMarker matches an inline [PROJECT: <path>] marker anywhere in
// the input. The path is validated later, by the guard, at use time.
var projectMarker = regexp.MustCompile(`\[PROJECT:\s*([^\]]+)\]`)

// ParseCommand recognizes the fixed command vocabulary. Clear words
// tolerate a single-character typo; everything else needs an exact
// keyword.
func ParseCommand(input string) Command {
	trimmed := strings.TrimSpace(input)
	lower := strings.ToLower(trimmed)

	if lower == "//clear" {
		return Command{Kind: CmdClear}
	}
	for _, w := range clearWords {
		if withinOneEdit(lower, w) {
			return Command{Kind: CmdClear}
		}
	}

	if arg, ok := strings.CutPrefix(trimmed, "/project "); ok {
		return Command{Kind: CmdProject, Arg: strings.TrimSpace(arg)}
	}
	if lower == "/project" {
		return Command{Kind: CmdProject}
	}

	if arg, ok := strings.CutPrefix(trimmed, "/file "); ok {
		return Command{Kind: CmdFilePreload, Arg: strings.TrimSpace(arg)}
	}

	for _, w := range analyzeWords {
		if lower == w {
			return Command{Kind: CmdAnalyze}
		}
		if arg, ok := strings.CutPrefix(lower, w+" "); ok {
			// Keep the original casing of the argument.
			return Command{Kind: CmdAnalyze, Arg: strings.TrimSpace(trimmed[len(trimmed)-len(arg):])}
		}
	}

	return Command{Kind: CmdNone}
}

// ExtractProjectMarker pulls an inline [PROJECT: path] marker out of the
// input, returning the remaining text and the path.
func ExtractProjectMarker(input string) (rest, path string, found bool) {
	m := projectMarker.FindStringSubmatchIndex(input)
	if m == nil {
		return input, "", false
	}
	path = strings.TrimSpace(input[m[2]:m[3]])
	rest = strings.TrimSpace(input[:m[0]] + input[m[1]:])
	return rest, path, true
}

// withinOneEdit reports whether a and b differ by at most one insertion,
// deletion or substitution. Enough typo tolerance for single-word
// commands without a full distance matrix.
func withinOneEdit(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if la > lb {
		a, b = b, a
		la, lb = lb, la
	}
	if lb-la > 1 {
		return false
	}

	if la == lb {
		diff := 0
		for i := 0; i < la; i++ {
			if a[i] != b[i] {
				diff++
				if diff > 1 {
					return false
				}
			}
		}
		return true
	}

	// b is one longer than a: allow one insertion.
	i, j := 0, 0
	skipped := false
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		if skipped {
			return false
		}
		skipped = true
		j++
	}
	return true
}
