// Package main implements the codegraph CLI: one-shot repository
// indexing and a long-running watch mode that keeps the index current.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/codegraph/config"
)

// Build information (set via ldflags).
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	rootCmd := &cobra.Command{
		Use:     "codegraph",
		Short:   "Code intelligence indexer",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(
		newIndexCmd(logger, &configPath),
		newWatchCmd(logger, &configPath),
		newValidateDocsCmd(logger, &configPath),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func newIndexCmd(logger *slog.Logger, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Run one full repository index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, logger)
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer app.Close()
			return app.RunIndex(cmd.Context())
		},
	}
}

func newWatchCmd(logger *slog.Logger, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Index once, then watch for changes and reindex on the configured schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, logger)
			if err != nil {
				return err
			}
			cfg.Index.WatchEnabled = true
			app, err := NewApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer app.Close()
			return app.RunWatch(cmd.Context())
		},
	}
}

func newValidateDocsCmd(logger *slog.Logger, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-docs",
		Short: "Score every indexed document's validity against the current code",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, logger)
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer app.Close()
			return app.RunValidateDocs(cmd.Context())
		},
	}
}

func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
