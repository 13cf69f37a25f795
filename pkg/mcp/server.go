package mcp

import (
	"context"

	infra "github.com/felixgeelhaar/teampulse/internal/infrastructure/mcp"
	"github.com/felixgeelhaar/teampulse/internal/infrastructure/wiring"
)

// Server exposes the MCP server implementation from the infrastructure layer.
type Server = infra.Server

// NewServer constructs an MCP server for the workspace rooted at root.
func NewServer(ctx context.Context, root string) (*Server, error) {
	return infra.NewServer(ctx, root)
}

// NewServerWithOptions is NewServer with explicit wiring options, such as a
// logger or a different task source.
func NewServerWithOptions(ctx context.Context, root string, opts ...wiring.Option) (*Server, error) {
	return infra.NewServer(ctx, root, opts...)
}
