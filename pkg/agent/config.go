package agent

import (
	"github.com/arodchenko/deskagent/pkg/adapters/llm"
	"github.com/arodchenko/deskagent/pkg/errmodel"
)

// Config is the fully-assembled agent configuration: the merged toolset, the
// model adapter, the system prompt, and the capability names a sandboxed
// execution layer may grant. Constructed once at startup; subsequent changes
// go through WithToolOverride and WithSystemPrompt, which return updated
// copies with last-write-wins semantics and process-lifetime scope.
type Config struct {
	Tools                  *Toolset
	Model                  llm.LLM
	SystemPrompt           string
	AuthorizedCapabilities []string
	Generation             *llm.GenerationConfig
}

// Configure builds an agent configuration from its parts.
func Configure(ts *Toolset, model llm.LLM, systemPrompt string, capabilities []string) (Config, error) {
	if ts == nil {
		return Config{}, errmodel.Validation("invalid_config", "toolset is nil", nil)
	}
	if model == nil {
		return Config{}, errmodel.Validation("invalid_config", "model adapter is nil", nil)
	}
	caps := make([]string, len(capabilities))
	copy(caps, capabilities)
	return Config{
		Tools:                  ts,
		Model:                  model,
		SystemPrompt:           systemPrompt,
		AuthorizedCapabilities: caps,
	}, nil
}

// WithToolOverride returns a config whose toolset has the given tool
// inserted or replaced under its own name. Only that entry changes; the
// original config is left untouched.
func WithToolOverride(cfg Config, t Tool) (Config, error) {
	ts := cfg.Tools.Clone()
	if _, err := ts.Override(t); err != nil {
		return Config{}, err
	}
	out := cfg
	out.Tools = ts
	return out, nil
}

// WithSystemPrompt returns a config with the system prompt replaced wholesale.
func WithSystemPrompt(cfg Config, prompt string) Config {
	out := cfg
	out.SystemPrompt = prompt
	return out
}

// WithGeneration returns a config with the model generation settings replaced.
func WithGeneration(cfg Config, gc *llm.GenerationConfig) Config {
	out := cfg
	out.Generation = gc
	return out
}
