// Package cmd provides the CLI commands for khoj.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kaipakiran/khoj/internal/logging"
	"github.com/kaipakiran/khoj/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the khoj CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "khoj [query]",
		Short: "Offline hybrid search over your files",
		Long: `khoj indexes a directory and searches it with a hybrid of BM25
keyword matching and dense-vector semantic search, fused with reciprocal
rank fusion. Everything runs locally; no data leaves the machine.

Run 'khoj index .' to build an index, then 'khoj <query>' to search it.`,
		Version: version.Version,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runBareQuery(cmd, args)
		},
	}

	cmd.SetVersionTemplate("khoj version {{.Version}}\n")

	cmd.Flags().IntP("limit", "l", 10, "maximum number of results")
	cmd.Flags().BoolP("semantic", "s", false, "also run dense-vector semantic search")
	cmd.Flags().Float64("keyword-weight", 0.7, "BM25 share of the fused ranking (0.0-1.0)")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.khoj/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newLogsCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config for debug logging: %w", err)
	}
	logger, cleanup, err := logging.Setup(cfg, "debug")
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
