package promptfile

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "review.yaml", `
name: review
description: code review mode
system: You review code for correctness.
stop: ["</s>"]
`)
	writeFile(t, dir, "unnamed.yml", `
system: Minimal profile.
`)
	writeFile(t, dir, "broken.yaml", `system: [unterminated`)
	writeFile(t, dir, "ignored.txt", `not yaml`)
	writeFile(t, dir, "empty-system.yaml", `name: empty`)

	profiles, err := LoadDirectory(dir, quietLogger())
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("got %d profiles, want 2", len(profiles))
	}

	review := Find(profiles, "review")
	if review == nil || review.System != "You review code for correctness." {
		t.Errorf("review profile = %+v", review)
	}
	if len(review.Stop) != 1 || review.Stop[0] != "</s>" {
		t.Errorf("stop = %v", review.Stop)
	}

	// Filename supplies the missing name.
	if Find(profiles, "unnamed") == nil {
		t.Error("profile without a name should take its filename")
	}
}

func TestLoadDirectoryMissing(t *testing.T) {
	profiles, err := LoadDirectory(filepath.Join(t.TempDir(), "nope"), quietLogger())
	if err != nil || profiles != nil {
		t.Errorf("missing dir should be empty, got %v, %v", profiles, err)
	}
}

func TestFindMissing(t *testing.T) {
	if Find(nil, "anything") != nil {
		t.Error("Find on empty set should be nil")
	}
}

func TestMergeAppliesOverrides(t *testing.T) {
	temp := 0.2
	p := &Profile{Stop: []string{"STOP"}, Temperature: &temp}

	stop, temperature := p.Merge([]string{"</s>", "User:"}, 0.7)
	if len(stop) != 3 || stop[0] != "</s>" || stop[2] != "STOP" {
		t.Errorf("stop = %v", stop)
	}
	if temperature != 0.2 {
		t.Errorf("temperature = %v, want profile override", temperature)
	}
}

func TestMergeWithoutOverridesKeepsConfigured(t *testing.T) {
	p := &Profile{}

	stop, temperature := p.Merge([]string{"</s>"}, 0.7)
	if len(stop) != 1 || stop[0] != "</s>" {
		t.Errorf("stop = %v", stop)
	}
	if temperature != 0.7 {
		t.Errorf("temperature = %v, want configured value", temperature)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
