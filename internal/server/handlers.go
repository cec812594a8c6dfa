package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/page-turner/internal/output"
	"github.com/mj1618/page-turner/internal/session"
	"pkt.systems/pslog"
)

// toolResult serializes v in the configured output format.
func toolResult(v interface{}, isError bool) *mcp.CallToolResult {
	text, err := output.Render(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	if isError {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}

// startResult is returned by start and stop.
type startResult struct {
	Started bool           `yaml:"started" json:"started"`
	Stopped bool           `yaml:"stopped" json:"stopped"`
	Status  session.Status `yaml:"status"  json:"status"`
}

func (s *Server) handleDiscover(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	rep, err := s.app.Probe(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(rep, false), nil
}

func (s *Server) handleTurn(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	res, err := s.app.Turner.Turn(ctx)
	return toolResult(res, err != nil), nil
}

// running reports whether a scheduler is active. The caller must hold
// providerMu.
func (s *Server) running() bool {
	if s.sched == nil {
		return false
	}
	select {
	case <-s.sched.Done():
		return false
	default:
		return true
	}
}

func (s *Server) handleStart(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	if s.running() {
		return mcp.NewToolResultError("session already running; call stop first"), nil
	}
	state := s.app.State
	if secs := floatParam(params, "interval", 0); secs > 0 {
		if err := state.SetInterval(seconds(secs)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	state.Rearm()

	sched := s.app.Scheduler(nil)
	s.sched = sched
	go func() {
		if err := sched.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			pslog.Ctx(s.ctx).Warn("scheduled session ended", "err", err)
		}
	}()
	return toolResult(startResult{Started: true, Status: state.Snapshot()}, false), nil
}

func (s *Server) handleStop(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	if !s.running() {
		return toolResult(startResult{Status: s.app.State.Snapshot()}, false), nil
	}
	s.sched.Stop()
	select {
	case <-s.sched.Done():
	case <-ctx.Done():
		return mcp.NewToolResultError(ctx.Err().Error()), nil
	}
	return toolResult(startResult{Stopped: true, Status: s.app.State.Snapshot()}, false), nil
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.State.Snapshot(), false), nil
}

func (s *Server) handleSetInterval(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	secs := floatParam(params, "seconds", 0)
	if secs <= 0 {
		return mcp.NewToolResultError("seconds is required"), nil
	}

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	var err error
	if s.running() {
		err = s.sched.SetInterval(seconds(secs))
	} else {
		err = s.app.State.SetInterval(seconds(secs))
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(s.app.State.Snapshot(), false), nil
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	url := stringParam(params, "url", "")
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	if err := s.app.Navigate(ctx, url); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.app.State.Rearm()
	return toolResult(s.app.State.Snapshot(), false), nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
