package config

// Defaults returns a config populated with sane defaults. Load starts
// from this and lets the file override individual fields.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			Workspace: "~/workspace",
			LogLevel:  "info",
			MaxTurns:  20,
			FifoPath:  "/tmp/agent-input-fifo",
		},
		Model: ModelConfig{
			URL:            "http://127.0.0.1:8080/completion",
			MaxTokens:      4096,
			Temperature:    0.7,
			Stop:           []string{"</s>", "User:", "<|im_end|>", "<|endoftext|>"},
			TimeoutSeconds: 120,
		},
		Security: SecurityConfig{
			DenyPatterns: []string{
				`rm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+/(\s|$)`,
				`rm\s+-[a-zA-Z]*[rf]`,
				`sudo\s`,
				`chmod\s+(-[a-zA-Z]+\s+)*777`,
				`chown\s+-R`,
				`dd\s+.*of=/dev/`,
				`mkfs`,
				`>\s*/dev/sd`,
				`:\(\)\s*\{.*\};\s*:`,
				`shutdown`,
				`reboot`,
			},
			ConfirmCommand: []string{"zenity", "--question", "--text"},
			MaxFailures:    2,
			AuditLog:       true,
		},
		Tools: ToolsConfig{
			Shell: ShellToolConfig{
				TimeoutSeconds: 60,
				MaxOutputBytes: 8000,
			},
			Read: ReadToolConfig{
				MaxBytes: 65536,
			},
		},
		Memory: MemoryConfig{
			Enabled:          true,
			DBPath:           "~/.openagent/memory.db",
			HistoryMaxBytes:  8000,
			HistoryKeepBytes: 6000,
			ContextMaxBytes:  32768,
		},
		Viewer: ViewerConfig{
			Command:             "agent-view",
			HistoryPath:         "~/.agent_history",
			ResolveTitles:       false,
			TitleTimeoutSeconds: 10,
		},
		Prompts: PromptsConfig{},
	}
}
