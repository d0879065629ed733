package view

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// HistoryLog is the append-only navigation history: one line per visit,
// "unixts|url|title". Shared with the standalone viewer, which writes
// the same format.
type HistoryLog struct {
	path string
	mu   sync.Mutex
}

// HistoryEntry is one parsed navigation record.
type HistoryEntry struct {
	Time  time.Time
	URL   string
	Title string
}

func NewHistoryLog(path string) *HistoryLog {
	return &HistoryLog{path: path}
}

// Append records one visit. Pipes in the URL or title would corrupt the
// line format, so they are replaced.
func (h *HistoryLog) Append(url, title string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open history log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%d|%s|%s\n",
		time.Now().Unix(), sanitizeField(url), sanitizeField(title))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("cannot append history: %w", err)
	}
	return nil
}

// Entries reads the full log, skipping unparsable lines.
func (h *HistoryLog) Entries() ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot open history log: %w", err)
	}
	defer f.Close()

	var entries []HistoryEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "|", 3)
		if len(parts) != 3 {
			continue
		}
		ts, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, HistoryEntry{
			Time:  time.Unix(ts, 0),
			URL:   parts[1],
			Title: parts[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func sanitizeField(s string) string {
	s = strings.ReplaceAll(s, "|", "%7C")
	return strings.ReplaceAll(s, "\n", " ")
}
