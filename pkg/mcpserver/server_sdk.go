//go:build mcp

package mcpserver

import (
	"context"
	"net"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arodchenko/deskagent/pkg/agent"
)

type Server struct {
	srv *mcp.Server
}

type Option func(*Server)

func New(ctx context.Context, _ ...Option) (*Server, error) {
	return &Server{srv: mcp.NewServer()}, nil
}

// ExportToolset registers every tool in the toolset with the MCP server.
// Calls go through SafeInvoke so input validation and tool-error wrapping
// match the local agent loop.
func (s *Server) ExportToolset(ts *agent.Toolset, validate agent.ValidateFunc) error {
	for _, name := range ts.Names() {
		t, ok := ts.Resolve(name)
		if !ok {
			continue
		}
		desc := t.Describe()
		tool := t
		if err := s.srv.RegisterTool(mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: desc.InputSchema,
			Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				return agent.SafeInvoke(ctx, tool, args, validate)
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// Serve accepts connections on addr and serves each over the SDK transport.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go func() { _ = s.srv.Serve(ctx, conn) }()
	}
}

// ServeConn serves a single pre-established connection.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	return s.srv.Serve(ctx, conn)
}
