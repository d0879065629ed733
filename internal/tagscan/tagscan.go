// Package tagscan extracts directive tags from raw model output. It is a
// small fixed-vocabulary scanner, not a markup parser: first match wins,
// nesting of a same-named tag breaks extraction, and malformed or
// unterminated input reports absence rather than an error.
package tagscan

import "strings"

// Content returns the text strictly between the first opening <tag ...>'s
// '>' and the next closing </tag>. ok is false when the tag is absent,
// unterminated, or otherwise malformed.
func Content(text, tag string) (content string, ok bool) {
	start := strings.Index(text, "<"+tag)
	if start < 0 {
		return "", false
	}
	gt := strings.Index(text[start:], ">")
	if gt < 0 {
		return "", false
	}
	from := start + gt + 1
	end := strings.Index(text[from:], "</"+tag+">")
	if end < 0 {
		return "", false
	}
	return text[from : from+end], true
}

// Attribute scans only the first opening <tag ...> span for attr="value".
// Attributes on later occurrences of the tag are never seen.
func Attribute(text, tag, attr string) (value string, ok bool) {
	start := strings.Index(text, "<"+tag)
	if start < 0 {
		return "", false
	}
	gt := strings.Index(text[start:], ">")
	if gt < 0 {
		return "", false
	}
	span := text[start : start+gt]
	marker := attr + `="`
	i := strings.Index(span, marker)
	if i < 0 {
		return "", false
	}
	i += len(marker)
	j := strings.Index(span[i:], `"`)
	if j < 0 {
		return "", false
	}
	return span[i : i+j], true
}

// Each calls fn with the content of every complete <tag>..</tag> element,
// left to right, advancing past each closing tag. It stops at the first
// malformed occurrence.
func Each(text, tag string, fn func(content string)) {
	closing := "</" + tag + ">"
	for {
		start := strings.Index(text, "<"+tag)
		if start < 0 {
			return
		}
		gt := strings.Index(text[start:], ">")
		if gt < 0 {
			return
		}
		from := start + gt + 1
		end := strings.Index(text[from:], closing)
		if end < 0 {
			return
		}
		fn(text[from : from+end])
		text = text[from+end+len(closing):]
	}
}

// EachBare is like Each but matches only the attribute-less opening form
// <tag>. Attribute-form occurrences of the same tag are left alone, which
// keeps the two read forms from bleeding into each other.
func EachBare(text, tag string, fn func(content string)) {
	opening := "<" + tag + ">"
	closing := "</" + tag + ">"
	for {
		start := strings.Index(text, opening)
		if start < 0 {
			return
		}
		from := start + len(opening)
		end := strings.Index(text[from:], closing)
		if end < 0 {
			return
		}
		fn(text[from : from+end])
		text = text[from+end+len(closing):]
	}
}

// Blocks returns the full element text (opening tag through closing tag) of
// every complete <tag ...>..</tag> occurrence, left to right. Used for
// directives whose attributes and children must be extracted per occurrence.
func Blocks(text, tag string) []string {
	closing := "</" + tag + ">"
	var blocks []string
	for {
		start := strings.Index(text, "<"+tag)
		if start < 0 {
			return blocks
		}
		end := strings.Index(text[start:], closing)
		if end < 0 {
			return blocks
		}
		stop := start + end + len(closing)
		blocks = append(blocks, text[start:stop])
		text = text[stop:]
	}
}

// StripTags removes complete directive elements from text so the remaining
// prose can be displayed to the user. Self-closing kinds are removed through
// "/>", container kinds through their closing tag.
func StripTags(text string) string {
	for _, tag := range []string{"read", "delete"} {
		text = stripSelfClosing(text, "<"+tag)
	}
	for _, tag := range []string{"list", "read", "run", "create", "edit", "gui", "url", "change"} {
		text = stripElement(text, tag)
	}
	return strings.TrimSpace(text)
}

func stripSelfClosing(text, open string) string {
	from := 0
	for {
		start := strings.Index(text[from:], open)
		if start < 0 {
			return text
		}
		start += from
		gt := strings.Index(text[start:], ">")
		if gt < 0 {
			return text
		}
		// Container form (<read>p</read>), left for the element pass.
		if gt < 1 || text[start+gt-1] != '/' {
			from = start + gt + 1
			continue
		}
		text = text[:start] + text[start+gt+1:]
		from = start
	}
}

func stripElement(text, tag string) string {
	closing := "</" + tag + ">"
	for {
		start := strings.Index(text, "<"+tag)
		if start < 0 {
			return text
		}
		end := strings.Index(text[start:], closing)
		if end < 0 {
			return text
		}
		text = text[:start] + text[start+end+len(closing):]
	}
}
