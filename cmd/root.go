// Package cmd defines the docsage command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docsage/docsage/internal/app"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/log"
)

var (
	debugLogs bool
	jsonLogs  bool
)

var rootCmd = &cobra.Command{
	Use:   "docsage",
	Short: "docsage - research assistant over your document library",
	Long: `docsage ingests parsed documents into a vector index and answers
questions about them using retrieved page context. It can also search
arxiv and the web for supporting material.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if debugLogs {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: jsonLogs})
}

// setupApp loads configuration and wires the application. The returned
// cleanup must be called before the command returns.
func setupApp(cmd *cobra.Command) (*app.App, func(), error) {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	a, err := app.Setup(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing application", "error", err)
		}
	}
	return a, cleanup, nil
}
