// Package mcp adapts tools from a remote Model Context Protocol server into
// the agent's toolset.
package mcp

import (
	"context"

	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
	"github.com/arodchenko/deskagent/pkg/mcpclient"
	"github.com/arodchenko/deskagent/pkg/providers"
)

var _ providers.Provider = (*Provider)(nil)

// RemoteTool proxies one remote MCP tool through the client.
type RemoteTool struct {
	client mcpclient.Client
	desc   mcpclient.ToolDescriptor
}

func (t RemoteTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        t.desc.Name,
		Description: t.desc.Description,
		InputSchema: t.desc.InputSchema,
		OutputType:  "object",
	}
}

func (t RemoteTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	out, err := t.client.CallTool(ctx, t.desc.Name, args)
	if err != nil {
		return nil, errmodel.Tool("remote_call_failed", "remote tool call failed", map[string]any{
			"tool": t.desc.Name,
		}, err)
	}
	return out, nil
}

// Provider lists a connected MCP server's tools.
type Provider struct {
	client mcpclient.Client
	tools  []agent.Tool
}

// NewProvider performs the handshake and snapshots the remote tool list.
func NewProvider(ctx context.Context, client mcpclient.Client) (*Provider, error) {
	if err := client.Handshake(ctx); err != nil {
		return nil, errmodel.Network("handshake_failed", "MCP handshake failed", nil, err)
	}
	descs, err := client.ListTools(ctx)
	if err != nil {
		return nil, errmodel.Network("list_tools_failed", "listing remote MCP tools failed", nil, err)
	}
	p := &Provider{client: client}
	for _, d := range descs {
		p.tools = append(p.tools, RemoteTool{client: client, desc: d})
	}
	return p, nil
}

func (p *Provider) Name() string { return "mcp" }

func (p *Provider) Tools() []agent.Tool { return p.tools }

// Close closes the underlying client connection.
func (p *Provider) Close() error { return p.client.Close() }
