package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Real-AI-Engineering/claude-code-agents/pkg/logger"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/mcpserver"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/presenter"
	"github.com/Real-AI-Engineering/claude-code-agents/pkg/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve validate_spec and render_spec as MCP tools over stdio",
	Long: `Start an MCP (Model Context Protocol) server on stdin/stdout exposing the
validate_spec and render_spec tools. Logs go to stderr.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		suite, err := newSuite(ctx, false)
		if err != nil {
			presenter.Error(err, "Failed to load schemas")
			os.Exit(1)
		}
		renderer, err := newRenderer()
		if err != nil {
			presenter.Error(err, "Failed to load templates")
			os.Exit(1)
		}

		logger.G(ctx).Info("starting MCP stdio server")
		srv := mcpserver.New(suite, renderer, cfg.DiscoverOptions())
		if err := srv.ServeStdio(version.Version); err != nil {
			presenter.Error(err, "MCP server failed")
			os.Exit(1)
		}
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
}
