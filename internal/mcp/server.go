package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hadiscover/hadiscover/internal/query"
)

const (
	// ServerName is the MCP server name
	ServerName = "hadiscover-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with the query router it answers from.
type Server struct {
	mcp    *server.MCPServer
	router *query.Router
}

// NewServer creates a new MCP server instance over an already-opened router.
func NewServer(router *query.Router) *Server {
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		router: router,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchAutomationsTool(), s.handleSearchAutomations)
	s.mcp.AddTool(getFacetsTool(), s.handleGetFacets)
	s.mcp.AddTool(getStatisticsTool(), s.handleGetStatistics)
}
