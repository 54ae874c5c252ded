package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Yates-Labs/auditbot/internal/config"
	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	offline    bool
)

var rootCmd = &cobra.Command{
	Use:   "auditbot",
	Short: "Auditbot - Call-center quality dashboard",
	Long: `Auditbot explores evaluated call-center calls and answers questions about them.

It loads per-campaign evaluation datasets, shows per-call metrics and audio,
chats over the evaluations with an LLM, generates strategic reports and
transcribes uploaded recordings.

Configuration is read from auditbot.yaml when present; environment variables
(and a .env file) override it.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file (default "+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default LOG_LEVEL or info)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Use the mock model and in-memory storage")
}

// setup loads configuration and wires an assistant. Callers must Close it.
func setup(ctx context.Context, opts orchestrator.BuildOptions) (*orchestrator.Assistant, *config.Config, *logger.Logger, error) {
	log := logger.NewWithOptions(logger.Options{Level: logLevel})

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	opts.Offline = opts.Offline || offline
	assistant, err := orchestrator.Build(ctx, cfg, log, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	return assistant, cfg, log, nil
}
