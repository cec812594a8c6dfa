// Package server exposes a page-turning session as MCP tools.
package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/page-turner/internal/app"
	"github.com/mj1618/page-turner/internal/session"
	"github.com/mj1618/page-turner/internal/version"
	"pkt.systems/pslog"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
}

// Server owns one App and at most one running scheduler.
type Server struct {
	// ctx outlives individual tool calls; scheduled sessions run under it.
	ctx context.Context

	providerMu sync.Mutex
	app        *app.App
	sched      *session.Scheduler

	mcp *mcpserver.MCPServer
}

// New registers the page-turner tools around a.
func New(ctx context.Context, a *app.App) *Server {
	s := &Server{ctx: ctx, app: a}
	s.mcp = mcpserver.NewMCPServer("page-turner", version.Version)
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve starts the MCP server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	pslog.Ctx(s.ctx).Info("mcp server starting", "transport", cfg.Transport, "port", cfg.Port)
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

// Close stops any running schedule. The App is left to its owner.
func (s *Server) Close() {
	s.providerMu.Lock()
	sched := s.sched
	s.providerMu.Unlock()
	if sched != nil {
		sched.Stop()
		<-sched.Done()
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("discover",
			mcp.WithDescription("Dry-run next-page discovery: report what every matcher tier sees, the chosen control and the right-side guard verdict. Nothing is clicked."),
		),
		s.handleDiscover,
	)

	s.mcp.AddTool(
		mcp.NewTool("turn",
			mcp.WithDescription("Find the next-page control and activate it once. Returns the new page number."),
		),
		s.handleTurn,
	)

	s.mcp.AddTool(
		mcp.NewTool("start",
			mcp.WithDescription("Start turning pages periodically until the control disappears or stop is called"),
			mcp.WithNumber("interval", mcp.Description("Seconds between turns (2-20)")),
		),
		s.handleStart,
	)

	s.mcp.AddTool(
		mcp.NewTool("stop",
			mcp.WithDescription("Stop periodic turning. A turn already in progress finishes."),
		),
		s.handleStop,
	)

	s.mcp.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Report session state: running, phase, page counter, interval, last error"),
		),
		s.handleStatus,
	)

	s.mcp.AddTool(
		mcp.NewTool("set_interval",
			mcp.WithDescription("Change the time between turns; takes effect on the running schedule"),
			mcp.WithNumber("seconds", mcp.Required(), mcp.Description("Seconds between turns (2-20)")),
		),
		s.handleSetInterval,
	)

	s.mcp.AddTool(
		mcp.NewTool("navigate",
			mcp.WithDescription("Load a URL in the controlled page"),
			mcp.WithString("url", mcp.Required(), mcp.Description("Page to open")),
		),
		s.handleNavigate,
	)
}
