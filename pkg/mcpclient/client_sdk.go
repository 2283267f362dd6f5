//go:build mcp

package mcpclient

import (
	"context"
	"net/url"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type Client interface {
	Handshake(ctx context.Context) error
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error)
	Close() error
}

// ToolDescriptor is the subset of the MCP tool schema we consume.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema []byte
}

type Option func(*config)

type config struct{}

type sdkClient struct {
	c *mcp.Client
}

// New dials an MCP server; addr is a ws:// or wss:// URL.
func New(ctx context.Context, addr string, _ ...Option) (Client, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	c, err := mcp.Dial(ctx, u.String())
	if err != nil {
		return nil, err
	}
	return &sdkClient{c: c}, nil
}

func (s *sdkClient) Handshake(ctx context.Context) error { return s.c.Handshake(ctx) }

func (s *sdkClient) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	ts, err := s.c.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ToolDescriptor, 0, len(ts))
	for _, t := range ts {
		out = append(out, ToolDescriptor{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
	}
	return out, nil
}

func (s *sdkClient) CallTool(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	return s.c.CallTool(ctx, name, args)
}

func (s *sdkClient) Close() error { return s.c.Close() }
