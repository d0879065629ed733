// Package promptfile loads system-prompt profiles from YAML files. A
// profile swaps the default system prompt for a task-specific one
// (reviewing, refactoring, writing docs) without rebuilding.
package promptfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is one named system-prompt definition.
type Profile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	System      string   `yaml:"system"`
	Stop        []string `yaml:"stop,omitempty"`        // extra stop sequences
	Temperature *float64 `yaml:"temperature,omitempty"` // override, optional
}

// LoadDirectory reads every .yaml/.yml file in dir. Unreadable or
// malformed files are skipped with a warning; a missing directory is
// not an error.
func LoadDirectory(dir string, logger *slog.Logger) ([]Profile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("prompt profile directory does not exist, skipping", "dir", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read prompt dir: %w", err)
	}

	var profiles []Profile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read prompt profile", "path", path, "err", err)
			continue
		}

		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			logger.Warn("cannot parse prompt profile", "path", path, "err", err)
			continue
		}
		if p.System == "" {
			logger.Warn("prompt profile has no system text", "path", path)
			continue
		}
		if p.Name == "" {
			p.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}

		logger.Debug("loaded prompt profile", "name", p.Name, "path", path)
		profiles = append(profiles, p)
	}

	return profiles, nil
}

// Find returns the profile with the given name, or nil.
func Find(profiles []Profile, name string) *Profile {
	for i := range profiles {
		if profiles[i].Name == name {
			return &profiles[i]
		}
	}
	return nil
}

// Merge applies the profile's generation overrides to the configured
// values: profile stop sequences are appended, a set temperature
// replaces the configured one.
func (p *Profile) Merge(stop []string, temperature float64) ([]string, float64) {
	merged := append(append([]string(nil), stop...), p.Stop...)
	if p.Temperature != nil {
		temperature = *p.Temperature
	}
	return merged, temperature
}
