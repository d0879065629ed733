package tool

import (
	"fmt"
	"os"
)

// Stat checks that path exists and is inside the workspace. The caller
// decides what a missing file means (deletion treats it as a quiet no-op).
func (f *Files) Stat(path string) (os.FileInfo, error) {
	if !f.guard.Permits(path) {
		return nil, fmt.Errorf("path %s is outside the workspace", path)
	}
	return os.Stat(path)
}

// Remove deletes path. Directories are removed recursively, regular
// files with a single unlink. Confirmation is the caller's concern.
func (f *Files) Remove(path string, recursive bool) error {
	if !f.guard.Permits(path) {
		return fmt.Errorf("path %s is outside the workspace", path)
	}
	if recursive {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("cannot remove %s: %w", path, err)
		}
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("cannot remove %s: %w", path, err)
	}
	return nil
}
