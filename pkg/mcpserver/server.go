//go:build !mcp

// Package mcpserver exports the assembled toolset over the Model Context
// Protocol so external agent hosts can call the assistant's tools. The SDK
// is only linked when building with the mcp tag.
package mcpserver

import (
	"context"
	"errors"

	"github.com/arodchenko/deskagent/pkg/agent"
)

// Server is a placeholder when the mcp build tag is not set. It lets the
// rest of the repo compile without the SDK.
type Server struct{}

type Option func(*Server)

// New creates a new MCP server (no-op without mcp tag).
func New(_ context.Context, _ ...Option) (*Server, error) { return &Server{}, nil }

// ExportToolset is a no-op that would export the toolset's tools.
func (s *Server) ExportToolset(_ *agent.Toolset, _ agent.ValidateFunc) error { return nil }

// Serve starts the MCP server (no-op without mcp tag).
func (s *Server) Serve(_ context.Context, _ string) error {
	return errors.New("mcp server not enabled in this build")
}
