// ABOUTME: MCP server subcommand
// ABOUTME: Serves the postman tools over stdio for agent integration
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/relationcraft/postman/handlers"
)

// MCPCommand starts the MCP server on stdio and blocks until the client hangs up.
func MCPCommand(ctx context.Context, env *Env, version string) error {
	env.Logger.Info("Starting postman MCP server", "user", env.User.Email)
	server := handlers.NewServer(env.DB, env.User.ID, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
