// Package mcpserver exposes DiaryQuest to agents over the Model Context
// Protocol.
//
// The server publishes a read-only tool surface: a connected agent can read
// a character sheet, the quest log, diary history, report statistics and
// the semantic index, but it cannot mutate anything. Writes stay behind the
// HTTP API. The default transport is stdin/stdout; [Server.HTTPHandler]
// serves the same tools over the MCP streamable HTTP protocol.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/meteoright00/diary-quest-sub001/internal/character"
	"github.com/meteoright00/diary-quest-sub001/internal/report"
	"github.com/meteoright00/diary-quest-sub001/internal/search"
	"github.com/meteoright00/diary-quest-sub001/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "diaryquest"

	// serverVersion is the tool surface version, bumped when a tool changes
	// shape.
	serverVersion = "1.0.0"
)

// Config carries the server's collaborators. Stores is required. A nil
// Engine or Reports falls back to engine defaults, and a nil Index leaves
// the search tool unregistered.
type Config struct {
	Stores  *store.Stores
	Engine  *character.Engine
	Reports *report.Aggregator
	Index   search.Index
}

// Server hosts the MCP tool surface.
type Server struct {
	mcp *mcp.Server
}

// New builds a server with every tool the configuration can serve.
func New(cfg Config) *Server {
	if cfg.Engine == nil {
		cfg.Engine = character.NewEngine()
	}
	if cfg.Reports == nil {
		cfg.Reports = report.NewAggregator(nil, report.WithCostFunc(cfg.Engine.Cost()))
	}

	srv := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerTools(srv, cfg)
	return &Server{mcp: srv}
}

// Run serves MCP on stdin/stdout until ctx ends. Context cancellation is a
// normal shutdown, not an error.
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, &mcp.StdioTransport{})
}

func (s *Server) serve(ctx context.Context, t mcp.Transport) error {
	err := s.mcp.Run(ctx, t)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mcpserver: serve: %w", err)
	}
	return nil
}

// HTTPHandler returns a handler speaking the MCP streamable HTTP protocol,
// for deployments that mount the tool surface on a listener instead of
// stdin/stdout.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
}
