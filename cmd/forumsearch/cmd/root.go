// Package cmd provides the CLI commands for forumsearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/forumsearch/core/internal/logging"
	"github.com/forumsearch/core/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the forumsearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forumsearch",
		Short: "Hybrid BM25/TF-IDF/vector search core for forum posts",
		Long: `forumsearch indexes a corpus of forum-style posts and serves hybrid
BM25, TF-IDF, and dense-vector search over it, fused into a single
ranked result list.

It is a library-first search core: the durable job queue and worker
pool build and swap index versions in the background, while the
search/suggest commands and the MCP tool server read whatever version
is currently active. There is no HTTP API surface here — automation
and AI clients talk to it over the MCP tool server instead.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("forumsearch version {{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to the forumsearch log directory")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDashCmd())
	cmd.AddCommand(newServeMCPCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func startLogging(cmd *cobra.Command, _ []string) error {
	// serve-mcp sets up its own stdout-safe logging; skip the default
	// stderr-writing setup here so the MCP stdio transport never races
	// against it for stdout/stderr ownership.
	if cmd.Name() == "serve-mcp" {
		return nil
	}

	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}
