// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only roster and catalogue tools for LLM
// integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ensemble/internal/listquery"
	"github.com/starford/ensemble/internal/musicservice"
	"github.com/starford/ensemble/internal/store"
)

const toolPageSize = 25

// Server wraps the MCP server with Ensemble tools. All tools are
// read-only; edits go through the REST API where validation and
// concurrency checks live.
type Server struct {
	mcp *server.MCPServer
	svc *musicservice.Service
}

// New creates a new MCP server with all Ensemble tools registered.
func New(svc *musicservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ensemble",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_musicians",
		mcp.WithDescription("List musicians with an optional name filter. Returns one page at a time."),
		mcp.WithString("search", mcp.Description("Name containment filter, case-insensitive")),
		mcp.WithString("page", mcp.Description("Page number, defaults to 1")),
	), s.listMusicians)

	s.mcp.AddTool(mcp.NewTool("get_musician",
		mcp.WithDescription("Read one musician with the instruments they play."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Musician id")),
	), s.getMusician)

	s.mcp.AddTool(mcp.NewTool("list_instruments",
		mcp.WithDescription("List all instruments ordered by name."),
	), s.listInstruments)

	s.mcp.AddTool(mcp.NewTool("performance_summary",
		mcp.WithDescription("Per-musician performance report: count, average, highest, and lowest fee."),
	), s.performanceSummary)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listMusicians(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := listquery.Query{Page: 1, PageSize: toolPageSize}
	var filter store.MusicianFilter
	if search, err := req.RequireString("search"); err == nil {
		filter.SearchName = search
	}
	if raw, err := req.RequireString("page"); err == nil {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			q.Page = n
		}
	}

	page, _, _, err := s.svc.ListMusicians(ctx, q, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(page, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getMusician(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid id: %s", raw)), nil
	}
	m, err := s.svc.GetMusician(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", raw)), nil
	}
	out, _ := json.MarshalIndent(m, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listInstruments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instruments, err := s.svc.ListInstruments(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(instruments, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) performanceSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := s.svc.PerformanceSummaries(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
