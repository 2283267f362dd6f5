package agent

import (
	"context"

	"github.com/arodchenko/deskagent/pkg/errmodel"
)

// FinalAnswerName is the reserved tool name that ends an agent run.
const FinalAnswerName = "final_answer"

const finalAnswerSchema = `{"type":"object","properties":{"message":{"type":"string","description":"The message to deliver to the user."}},"required":["message"],"additionalProperties":false}`

// FinalAnswerTool delivers the agent's message to the user and terminates
// the run. The default entry is registered during assembly and is expected
// to be replaced via the toolset override point when a deployment needs a
// tailored description or delivery behavior.
type FinalAnswerTool struct {
	// Description overrides the default tool description shown to the model.
	Description string
}

func (t FinalAnswerTool) Describe() ToolDescriptor {
	desc := t.Description
	if desc == "" {
		desc = "Delivers the final answer to the user and ends the run."
	}
	return ToolDescriptor{
		Name:        FinalAnswerName,
		Description: desc,
		InputSchema: []byte(finalAnswerSchema),
		OutputType:  "string",
	}
}

func (t FinalAnswerTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	msg, ok := args["message"].(string)
	if !ok {
		return nil, errmodel.Tool("execution_failed", "final answer message must be a string", nil, nil)
	}
	return map[string]any{"message": msg}, nil
}
