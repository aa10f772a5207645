package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forumsearch/core/internal/logging"
	"github.com/forumsearch/core/internal/mcpserver"
)

func newServeMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the search/suggest/index_status MCP tools over stdio",
		Long: `serve-mcp runs the MCP tool server for AI clients (Claude Code,
Cursor, and similar) to query: search, suggest, index_status.

The MCP stdio transport requires stdout to be used exclusively for
JSON-RPC frames, so this command routes all logging to a file and
never writes to stdout or stderr itself.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServeMCP(ctx)
		},
	}
	return cmd
}

func runServeMCP(ctx context.Context) error {
	cleanup, err := logging.SetupMCPMode()
	if err != nil {
		return err
	}
	defer cleanup()

	settings, st, err := openStoreAndSettings()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := newEngine(settings, st)
	suggester := newSuggester(settings)

	server := mcpserver.NewServer(engine, suggester, st, settings)
	return server.Serve(ctx)
}
