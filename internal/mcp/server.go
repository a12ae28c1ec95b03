package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hexfield/ragd/internal/ingest"
	"github.com/hexfield/ragd/internal/registry"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server      *mcp.Server
	registry    *registry.Registry
	coordinator *ingest.Coordinator
}

// Config holds server dependencies.
type Config struct {
	Registry    *registry.Registry
	Coordinator *ingest.Coordinator
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "ragd-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_corpus",
		Description: "Search a corpus semantically. Returns the most similar passages with their source provenance and similarity scores.",
	}, makeSearchHandler(cfg.Registry))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_corpora",
		Description: "List all corpora with their document and vector counts.",
	}, makeListHandler(cfg.Registry))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_corpus",
		Description: "Create a new empty corpus and make it the active one.",
	}, makeCreateHandler(cfg.Registry))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "corpus_status",
		Description: "Get a corpus's status: live vector count plus its document ledger with per-source chunk counts.",
	}, makeStatusHandler(cfg.Registry))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_url",
		Description: "Fetch a web page, segment it and index it into a corpus. Optionally expands to the site's sitemap.",
	}, makeIngestURLHandler(cfg.Registry, cfg.Coordinator))

	return &Server{
		server:      server,
		registry:    cfg.Registry,
		coordinator: cfg.Coordinator,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
