package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for openagent.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Model    ModelConfig    `json:"model"`
	Security SecurityConfig `json:"security"`
	Tools    ToolsConfig    `json:"tools"`
	Memory   MemoryConfig   `json:"memory"`
	Viewer   ViewerConfig   `json:"viewer"`
	Prompts  PromptsConfig  `json:"prompts"`
}

type GeneralConfig struct {
	Workspace string `json:"workspace"`
	LogLevel  string `json:"logLevel"`
	LogFile   string `json:"logFile,omitempty"`
	MaxTurns  int    `json:"maxTurns"`
	FifoPath  string `json:"fifoPath"` // out-of-band input pipe
}

// ModelConfig describes the completion endpoint (llama.cpp style).
type ModelConfig struct {
	URL            string   `json:"url"`
	MaxTokens      int      `json:"maxTokens"`
	Temperature    float64  `json:"temperature"`
	Stop           []string `json:"stop,omitempty"`
	TimeoutSeconds int      `json:"timeoutSeconds"`
}

type SecurityConfig struct {
	DenyPatterns   []string `json:"denyPatterns"`
	ConfirmCommand []string `json:"confirmCommand,omitempty"` // argv; message appended
	MaxFailures    int      `json:"maxCommandFailures"`       // consecutive failures before a command is skipped
	AuditLog       bool     `json:"auditLog"`
}

type ToolsConfig struct {
	Shell ShellToolConfig `json:"shell"`
	Read  ReadToolConfig  `json:"read"`
}

type ShellToolConfig struct {
	TimeoutSeconds int `json:"timeout"`
	MaxOutputBytes int `json:"maxOutputBytes"`
}

type ReadToolConfig struct {
	MaxBytes int `json:"maxBytes"`
}

type MemoryConfig struct {
	Enabled          bool   `json:"enabled"`
	DBPath           string `json:"dbPath"`
	HistoryMaxBytes  int    `json:"historyMaxBytes"`  // trim threshold for the flattened history
	HistoryKeepBytes int    `json:"historyKeepBytes"` // suffix kept after a trim
	ContextMaxBytes  int    `json:"contextMaxBytes"`  // ceiling for the loaded-files context
}

type ViewerConfig struct {
	Command             string `json:"command"`     // external viewer binary; one argument (file or URL)
	HistoryPath         string `json:"historyPath"` // navigation history log (timestamp|url|title)
	ResolveTitles       bool   `json:"resolveTitles"`
	TitleTimeoutSeconds int    `json:"titleTimeoutSeconds"`
}

type PromptsConfig struct {
	Dir string `json:"dir,omitempty"` // optional YAML prompt profiles
}

// DefaultConfigDir returns the default config directory (~/.openagent).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".openagent"
	}
	return filepath.Join(home, ".openagent")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.Workspace = ExpandPath(cfg.General.Workspace)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Memory.DBPath = ExpandPath(cfg.Memory.DBPath)
	cfg.Viewer.HistoryPath = ExpandPath(cfg.Viewer.HistoryPath)
	cfg.Prompts.Dir = ExpandPath(cfg.Prompts.Dir)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.General.MaxTurns < 1 || cfg.General.MaxTurns > 200 {
		errs = append(errs, "general.maxTurns must be between 1 and 200")
	}
	if cfg.General.Workspace == "" {
		errs = append(errs, "general.workspace must be set")
	}
	if cfg.Model.URL == "" {
		errs = append(errs, "model.url must be set")
	}
	if cfg.Model.TimeoutSeconds < 1 {
		errs = append(errs, "model.timeoutSeconds must be >= 1")
	}
	if cfg.Tools.Shell.TimeoutSeconds < 1 {
		errs = append(errs, "tools.shell.timeout must be >= 1")
	}
	if cfg.Tools.Shell.MaxOutputBytes < 1 {
		errs = append(errs, "tools.shell.maxOutputBytes must be >= 1")
	}
	if cfg.Tools.Read.MaxBytes < 1 {
		errs = append(errs, "tools.read.maxBytes must be >= 1")
	}
	if cfg.Security.MaxFailures < 1 {
		errs = append(errs, "security.maxCommandFailures must be >= 1")
	}
	if cfg.Memory.HistoryKeepBytes > cfg.Memory.HistoryMaxBytes {
		errs = append(errs, "memory.historyKeepBytes must not exceed memory.historyMaxBytes")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
