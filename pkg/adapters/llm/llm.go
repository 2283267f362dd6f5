// Package llm defines the uniform interface over remote chat-completion
// services: given an ordered conversation, produce the next turn. Providers
// register factories by name; retry policy belongs to the caller, not here.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message with a role and content.
type Message struct {
	Role    string
	Content string
}

// GenerationConfig carries the sampling settings handed to the remote model.
type GenerationConfig struct {
	// Temperature is sampling randomness.
	Temperature float64
	// TopP is nucleus-sampling mass.
	TopP float64
	// RepetitionPenalty suppresses repeated tokens.
	RepetitionPenalty float64
	// MaxTokens caps output length.
	MaxTokens int
}

// GenerateResult contains the model's text output and token usage if available.
type GenerateResult struct {
	Text         string
	PromptTokens int
	OutputTokens int
	TotalTokens  int
	Model        string
}

// LLM defines a minimal chat generation interface.
type LLM interface {
	// Name returns provider name (e.g., "openai").
	Name() string
	// Generate creates a completion from a list of messages.
	Generate(ctx context.Context, messages []Message, gc *GenerationConfig) (GenerateResult, error)
}

// Factory constructs an LLM from provider-specific config.
// Common cfg keys: api_key, client_id, model.
type Factory func(ctx context.Context, cfg map[string]any) (LLM, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers an LLM factory under a provider name.
func Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("llm: empty provider name")
	}
	if f == nil {
		return fmt.Errorf("llm: nil factory for %q", name)
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := factories[name]; exists {
		return fmt.Errorf("llm: provider %q already registered", name)
	}
	factories[name] = f
	return nil
}

// Resolve gets a registered factory by name.
func Resolve(name string) (Factory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Range iterates all registered factories.
func Range(fn func(name string, f Factory)) {
	regMu.RLock()
	defer regMu.RUnlock()
	for n, f := range factories {
		fn(n, f)
	}
}
