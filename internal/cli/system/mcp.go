package system

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/mcp"
)

// MCPCmd serves the habit tools over stdio for MCP clients. Stdout belongs
// to the protocol, so nothing else is printed.
type MCPCmd struct{}

func (c *MCPCmd) Run(ctx *cli.Context) error {
	server, err := mcp.NewServer(ctx.Engine)
	if err != nil {
		return err
	}
	runCtx, stop := signal.NotifyContext(ctx.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting MCP server")
	return server.Serve(runCtx)
}
