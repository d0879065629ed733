package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"openagent/internal/channel"
	"openagent/internal/config"
	"openagent/internal/provider"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on the installation",
		Long: `Verifies that configuration, the model endpoint, the database, the
workspace and the external viewer are correctly set up. Reports
pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("openagent doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'openagent init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\nResults: %d passed, %d failed\n", passed, failed)
				return fmt.Errorf("config invalid")
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Workspace directory
			if info, err := os.Stat(cfg.General.Workspace); err != nil {
				printFail("Workspace", fmt.Sprintf("not found: %s", cfg.General.Workspace))
				failed++
			} else if !info.IsDir() {
				printFail("Workspace", fmt.Sprintf("not a directory: %s", cfg.General.Workspace))
				failed++
			} else {
				printPass("Workspace", cfg.General.Workspace)
				passed++
			}

			// 4. Database writable
			if cfg.Memory.Enabled {
				if err := checkDatabase(cfg.Memory.DBPath); err != nil {
					printFail("Database", err.Error())
					failed++
				} else {
					printPass("Database", cfg.Memory.DBPath)
					passed++
				}
			} else {
				printWarn("Database", "memory disabled; transcript will not persist")
				warned++
			}

			// 5. Model endpoint reachable
			llm := provider.NewLlamaCpp(provider.LlamaCppConfig{
				URL: cfg.Model.URL, Timeout: 5 * time.Second, Logger: logger,
			})
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := llm.Healthy(ctx); err != nil {
				printWarn("Model endpoint", err.Error())
				warned++
			} else {
				printPass("Model endpoint", cfg.Model.URL)
				passed++
			}

			// 6. Viewer binary on PATH
			if cfg.Viewer.Command == "" {
				printWarn("Viewer", "not configured; gui/url directives will fail")
				warned++
			} else if _, err := exec.LookPath(cfg.Viewer.Command); err != nil {
				printWarn("Viewer", fmt.Sprintf("%s not found on PATH", cfg.Viewer.Command))
				warned++
			} else {
				printPass("Viewer", cfg.Viewer.Command)
				passed++
			}

			// 7. FIFO creatable
			if cfg.General.FifoPath == "" {
				printWarn("Input FIFO", "not configured; out-of-band input disabled")
				warned++
			} else if fifo, err := channel.OpenFIFO(cfg.General.FifoPath); err != nil {
				printWarn("Input FIFO", err.Error())
				warned++
			} else {
				fifo.Close()
				printPass("Input FIFO", cfg.General.FifoPath)
				passed++
			}

			// 8. Confirmation dialog binary
			if len(cfg.Security.ConfirmCommand) == 0 {
				printWarn("Confirm dialog", "not configured; delete directives will be declined")
				warned++
			} else if _, err := exec.LookPath(cfg.Security.ConfirmCommand[0]); err != nil {
				printWarn("Confirm dialog", fmt.Sprintf("%s not found on PATH", cfg.Security.ConfirmCommand[0]))
				warned++
			} else {
				printPass("Confirm dialog", cfg.Security.ConfirmCommand[0])
				passed++
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running openagent.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nopenagent should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed.\n")
			}
			return nil
		},
	}
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	db.ExecContext(ctx, "DROP TABLE IF EXISTS _doctor_test")

	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
