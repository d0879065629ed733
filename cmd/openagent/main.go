package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"openagent/internal/agent"
	"openagent/internal/analyze"
	"openagent/internal/channel"
	"openagent/internal/config"
	"openagent/internal/domain"
	"openagent/internal/memory"
	"openagent/internal/metrics"
	"openagent/internal/promptfile"
	"openagent/internal/provider"
	"openagent/internal/security"
	"openagent/internal/tool"
	"openagent/internal/view"
	"openagent/internal/workspace"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
	profile    string // prompt profile name, chat only
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "openagent",
		Short: "openagent: local-model coding agent",
		Long:  "openagent drives a local completion endpoint through a tag-based tool protocol against a sandboxed workspace.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.openagent/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(historyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			ws := config.ExpandPath(cfg.General.Workspace)
			if err := os.MkdirAll(ws, 0o755); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "workspace", ws)
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		RunE:  runChat,
	}
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "prompt profile name from the prompts directory")
	return cmd
}

func historyCmd() *cobra.Command {
	limit := 20
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transcript entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfigOrDefaults()
			store, err := memory.NewSQLiteStore(cfg.Memory.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.RecentTranscript(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("[%s] %s: %s\n",
					e.CreatedAt.Format("2006-01-02 15:04"), e.Role, e.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfigOrDefaults() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
		cfg.General.Workspace = config.ExpandPath(cfg.General.Workspace)
		cfg.Memory.DBPath = config.ExpandPath(cfg.Memory.DBPath)
		cfg.Viewer.HistoryPath = config.ExpandPath(cfg.Viewer.HistoryPath)
	}
	return cfg
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefaults()

	if err := os.MkdirAll(cfg.General.Workspace, 0o755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Detached viewer children are reaped here, not per spawn.
	channel.StartReaper(ctx, logger)

	var store *memory.SQLiteStore
	if cfg.Memory.Enabled {
		s, err := memory.NewSQLiteStore(cfg.Memory.DBPath, logger)
		if err != nil {
			return err
		}
		store = s
		defer store.Close()
	}

	guard := workspace.NewGuard(cfg.General.Workspace)

	confirmer := view.NewDialogConfirmer(cfg.Security.ConfirmCommand, logger)
	var audit security.AuditLogger
	if store != nil {
		audit = store
	}
	sec, err := security.NewEngine(cfg.Security, confirmer, audit, logger)
	if err != nil {
		return err
	}

	navLog := view.NewHistoryLog(cfg.Viewer.HistoryPath)
	var titler view.Titler
	if cfg.Viewer.ResolveTitles {
		titler = view.NewChromeTitler(
			time.Duration(cfg.Viewer.TitleTimeoutSeconds)*time.Second, logger)
	}
	viewer := view.NewExecSpawner(cfg.Viewer.Command, navLog, titler, logger)

	failures := tool.NewFailureTracker(cfg.Security.MaxFailures)
	files := tool.NewFiles(guard, cfg.Tools.Read.MaxBytes)
	shell := tool.NewShell(cfg.General.Workspace, cfg.Tools.Shell.TimeoutSeconds, cfg.Tools.Shell.MaxOutputBytes)
	presenter := tool.NewPresenter(viewer, os.TempDir())

	// Keep the interface nil when the store is disabled; a typed nil
	// would defeat the nil checks downstream.
	var txStore domain.TranscriptStore
	if store != nil {
		txStore = store
	}

	state := agent.NewState(agent.StateConfig{
		Failures:    failures,
		Guard:       guard,
		Store:       txStore,
		Logger:      logger,
		ContextMax:  cfg.Memory.ContextMaxBytes,
		HistoryMax:  cfg.Memory.HistoryMaxBytes,
		HistoryKeep: cfg.Memory.HistoryKeepBytes,
	})

	executor := tool.NewExecutor(tool.ExecutorConfig{
		Files:     files,
		Shell:     shell,
		Presenter: presenter,
		Security:  sec,
		Failures:  failures,
		Sink:      state,
		Out:       os.Stdout,
		Logger:    logger,
	})

	system := ""
	stopSeqs := cfg.Model.Stop
	temperature := cfg.Model.Temperature
	if profile != "" {
		profiles, err := promptfile.LoadDirectory(cfg.Prompts.Dir, logger)
		if err != nil {
			return err
		}
		p := promptfile.Find(profiles, profile)
		if p == nil {
			return fmt.Errorf("unknown prompt profile %q", profile)
		}
		system = p.System
		stopSeqs, temperature = p.Merge(stopSeqs, temperature)
	}

	llm := provider.NewLlamaCpp(provider.LlamaCppConfig{
		URL:         cfg.Model.URL,
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: temperature,
		Stop:        stopSeqs,
		Timeout:     time.Duration(cfg.Model.TimeoutSeconds) * time.Second,
		Logger:      logger,
	})

	loop := agent.NewLoop(agent.LoopConfig{
		Provider:  llm,
		Executor:  executor,
		Presenter: presenter,
		Store:     txStore,
		Logger:    logger,
		MaxTurns:  cfg.General.MaxTurns,
	})

	session := agent.NewSession(agent.SessionConfig{
		State:    state,
		Loop:     loop,
		Prompt:   agent.NewPromptBuilder(system),
		Files:    files,
		Analyzer: analyze.New(llm, guard, nil, logger),
		Store:    txStore,
		Logger:   logger,
	})

	var fifo *channel.FIFO
	if cfg.General.FifoPath != "" {
		f, err := channel.OpenFIFO(cfg.General.FifoPath)
		if err != nil {
			logger.Warn("fifo unavailable", "path", cfg.General.FifoPath, "err", err)
		} else {
			fifo = f
			defer fifo.Close()
		}
	}

	console := channel.NewConsole(channel.ConsoleConfig{
		Session: session,
		FIFO:    fifo,
		Logger:  logger,
	})

	logger.Info("session started",
		"workspace", cfg.General.Workspace, "model", cfg.Model.URL, "max_turns", cfg.General.MaxTurns)
	runErr := console.Run(ctx)
	logger.Debug("session metrics", "render", metrics.Default.Render())
	return runErr
}
