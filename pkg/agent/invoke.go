package agent

import (
	"context"

	"github.com/arodchenko/deskagent/pkg/errmodel"
)

// SafeInvoke validates args against the tool's input schema and invokes it.
// Invocation failures come back as tool-category errors so the agent loop
// can surface them to the model as observations instead of aborting.
func SafeInvoke(ctx context.Context, t Tool, args map[string]any, validate ValidateFunc) (map[string]any, error) {
	if t == nil {
		return nil, errmodel.Validation("invalid_tool", "tool is nil", nil)
	}
	d := t.Describe()
	if validate == nil {
		validate = JSONSchemaValidator
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := validate(d.InputSchema, args); err != nil {
		return nil, errmodel.Validation("invalid_input", "tool input validation failed", map[string]any{
			"tool":  d.Name,
			"error": err.Error(),
		})
	}
	out, err := t.Invoke(ctx, args)
	if err != nil {
		if errmodel.IsCategory(err, errmodel.CategoryTool) {
			return nil, err
		}
		return nil, errmodel.Tool("execution_failed", "tool invocation failed", map[string]any{
			"tool": d.Name,
		}, err)
	}
	return out, nil
}
