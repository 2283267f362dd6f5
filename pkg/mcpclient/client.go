//go:build !mcp

// Package mcpclient imports tools from a remote Model Context Protocol
// server so they can join the assistant's toolset alongside local tools.
// The SDK is only linked when building with the mcp tag.
package mcpclient

import (
	"context"
	"errors"
)

// Client defines the minimal MCP client surface the assistant needs.
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

// New returns a stub client that reports not supported unless built with
// the mcp tag.
func New(_ context.Context, _ string, _ ...Option) (Client, error) {
	return &noopClient{}, nil
}

type noopClient struct{}

func (noopClient) Handshake(context.Context) error {
	return errors.New("mcp not enabled in this build")
}
func (noopClient) ListTools(context.Context) ([]ToolDescriptor, error) {
	return nil, errors.New("mcp not enabled in this build")
}
func (noopClient) CallTool(context.Context, string, map[string]any) (map[string]any, error) {
	return nil, errors.New("mcp not enabled in this build")
}
func (noopClient) Close() error { return nil }
