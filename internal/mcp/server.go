// Package mcp exposes the habit engine to AI assistants over the Model
// Context Protocol.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/julianstephens/habitual/internal/app"
	"github.com/julianstephens/habitual/internal/constants"
)

// Server wraps the MCP server with engine access.
type Server struct {
	mcpServer *mcp.Server
	engine    *app.Engine
}

func NewServer(engine *app.Engine) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    constants.AppName,
			Version: constants.Version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		engine:    engine,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve runs over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
