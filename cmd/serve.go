package cmd

import (
	"fmt"

	"github.com/mj1618/page-turner/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server controlling the reader",
	Long: `Open the reader and start a Model Context Protocol (MCP) server exposing
discover, turn, start, stop, status, set_interval and navigate tools.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  page-turner serve --url https://leia.arvore.com.br/...
  page-turner serve --transport streamable-http --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(ctx, a)
	defer srv.Close()
	if err := srv.Serve(server.Config{Transport: transport, Port: port}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
