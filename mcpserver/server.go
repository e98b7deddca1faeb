// Package mcpserver exposes the catalog lookups as Model Context Protocol tools.
package mcpserver

import (
	"net/http"

	"github.com/giygas/drugcatalog-api/interfaces"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "drugcatalog-mcp"
	serverVersion = "v1.0.0"
)

// Server holds the MCP server and the catalog its tools query
type Server struct {
	store     interfaces.DrugStore
	validator interfaces.DataValidator
	mcpServer *mcp.Server
}

// NewServer creates an MCP server with every catalog tool registered
func NewServer(store interfaces.DrugStore, validator interfaces.DataValidator) *Server {
	s := &Server{
		store:     store,
		validator: validator,
	}

	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		},
		nil,
	)

	s.registerTools()

	return s
}

// MCP returns the underlying SDK server
func (s *Server) MCP() *mcp.Server {
	return s.mcpServer
}

// Handler serves the tools over streamable HTTP. Every session shares the same server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}
