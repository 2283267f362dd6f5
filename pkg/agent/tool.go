package agent

import (
	"context"
)

// ToolDescriptor declares the static interface of a tool.
// InputSchema is a JSON Schema (draft 2020-12) in UTF-8 bytes; OutputType
// names the shape of the result the model should expect ("string" or
// "object"), mirroring how tool outputs are described to the model.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema []byte `json:"input_schema"`
	OutputType  string `json:"output_type,omitempty"`
}

// Tool is a named, independently invocable capability exposed to the agent.
// Invoke is synchronous and must be deterministic for identical inputs
// against fixed provider state; side effects (mutating a mailbox, adding a
// meeting) are the providing component's concern.
type Tool interface {
	// Describe returns the public descriptor consumed for prompting and validation.
	Describe() ToolDescriptor
	// Invoke executes the tool. Args MUST conform to InputSchema.
	Invoke(ctx context.Context, args map[string]any) (map[string]any, error)
}

// DescribeTool is a helper to get a ToolDescriptor from a Tool (nil-safe).
func DescribeTool(t Tool) ToolDescriptor {
	if t == nil {
		return ToolDescriptor{}
	}
	return t.Describe()
}
