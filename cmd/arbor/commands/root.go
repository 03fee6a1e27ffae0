package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helmling/arbor/internal/config"
	"github.com/helmling/arbor/internal/log"
	"github.com/helmling/arbor/internal/workspace"
)

var (
	cfg *config.Config

	// Global flags.
	verbose    bool
	logJSON    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Multi-repository workspaces for coding agents",
	Long: `Arbor creates isolated workspaces spanning multiple repositories, so
coding-agent sessions can work in parallel without stepping on each other.

Git repositories are isolated with a worktree per session; jj repositories
are isolated with a logical change per session, sharing one directory.

Quick Start:
  arbor workspace create ./ws --repo api=~/src/api --branch agent-1
  arbor workspace cleanup ./ws --repo api=~/src/api --branch agent-1
  arbor sweep --live ./ws`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env first so everything after sees its variables.
		if err := config.LoadDotEnvFromCwd(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .arbor/.env: %v\n", err)
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log.Configure(log.Options{
			Level:   logLevel(cfg.Log.Level),
			JSON:    logJSON || cfg.Log.JSON,
			Verbose: verbose,
		})

		log.Debug("initialized", "verbose", verbose)
		return nil
	},
}

func logLevel(name string) log.Level {
	switch name {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// newManager builds the workspace manager from the loaded config.
func newManager() *workspace.Manager {
	return workspace.NewManager(cfg.Workspace.BaseDir,
		workspace.WithSweepDisabled(func() bool {
			// Re-read so an operator can flip the flag between sweeps.
			current, err := config.Load(configPath)
			if err != nil {
				log.Warn("re-reading config failed, keeping sweep enabled", log.Err(err))
				return false
			}
			return current.Workspace.DisableOrphanScan
		}))
}

// Execute runs the root command with signal handling.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "json", false, "Log in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.arbor/config.yaml)")
}
