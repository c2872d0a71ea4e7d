package main

import (
	"context"

	"github.com/spf13/cobra"

	"graft/internal/logging"
	mcpserver "graft/internal/mcp"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout. Coding agents connect via their
MCP config and query the healing summary, event log and cache mappings,
trigger merges and pre-check locator candidates directly.

The server monitors for parent process death. When the agent host disconnects
or restarts, the server self-terminates to prevent zombie processes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv := mcpserver.NewServer(cfg)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logger := logging.New("mcp")
	mcpserver.WatchParent(ctx, logger, cancel)

	logger.Info("starting graft MCP server over stdio (parent watchdog active)", "reports_dir", cfg.ReportsDir)
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
