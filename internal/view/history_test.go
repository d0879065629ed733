package view

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHistoryAppendAndRead(t *testing.T) {
	log := NewHistoryLog(filepath.Join(t.TempDir(), "history"))

	if err := log.Append("https://example.com", "Example Domain"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log.Append("https://golang.org", ""); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := log.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].URL != "https://example.com" || entries[0].Title != "Example Domain" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Title != "" {
		t.Errorf("empty title should round-trip, got %q", entries[1].Title)
	}
}

func TestHistorySanitizesPipes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	log := NewHistoryLog(path)

	if err := log.Append("https://example.com/a|b", "T|itle"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))
	if strings.Count(line, "|") != 2 {
		t.Errorf("line should have exactly two separators: %q", line)
	}
}

func TestHistoryMissingFileIsEmpty(t *testing.T) {
	log := NewHistoryLog(filepath.Join(t.TempDir(), "nope"))

	entries, err := log.Entries()
	if err != nil || entries != nil {
		t.Errorf("missing file should read as empty, got %v, %v", entries, err)
	}
}

func TestHistorySkipsGarbageLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	content := "garbage line\nnotanumber|u|t\n1700000000|https://ok.example|Ok\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := NewHistoryLog(path).Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].URL != "https://ok.example" {
		t.Errorf("got %+v", entries)
	}
}
