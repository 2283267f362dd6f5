package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/arodchenko/deskagent/pkg/errmodel"
)

type sumTool struct{}

func (sumTool) Describe() ToolDescriptor {
	return ToolDescriptor{
		Name:        "sum",
		InputSchema: []byte(`{"type":"object","properties":{"a":{"type":"number"},"b":{"type":"number"}},"required":["a","b"],"additionalProperties":false}`),
		OutputType:  "object",
	}
}

func (sumTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	a, _ := args["a"].(float64)
	b, _ := args["b"].(float64)
	return map[string]any{"sum": a + b}, nil
}

type failingTool struct{}

func (failingTool) Describe() ToolDescriptor {
	return ToolDescriptor{Name: "flaky", InputSchema: []byte(`{"type":"object"}`), OutputType: "string"}
}

func (failingTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	return nil, errors.New("service unreachable")
}

func TestSafeInvoke(t *testing.T) {
	out, err := SafeInvoke(context.Background(), sumTool{}, map[string]any{"a": 1.0, "b": 2.0}, JSONSchemaValidator)
	if err != nil {
		t.Fatal(err)
	}
	if out["sum"] != 3.0 {
		t.Fatalf("sum=%v", out["sum"])
	}
	// bad input
	_, err = SafeInvoke(context.Background(), sumTool{}, map[string]any{"a": "x", "b": 2.0}, JSONSchemaValidator)
	ce := errmodel.From(err)
	if ce == nil || ce.Code != "invalid_input" {
		t.Fatalf("want invalid_input, got %v", err)
	}
}

func TestSafeInvoke_WrapsToolError(t *testing.T) {
	_, err := SafeInvoke(context.Background(), failingTool{}, nil, JSONSchemaValidator)
	if !errmodel.IsCategory(err, errmodel.CategoryTool) {
		t.Fatalf("want tool category, got %v", err)
	}
	ce := errmodel.From(err)
	if ce.Code != "execution_failed" {
		t.Fatalf("code=%s", ce.Code)
	}
}

func TestFinalAnswerTool(t *testing.T) {
	tool := FinalAnswerTool{}
	d := tool.Describe()
	if d.Name != FinalAnswerName {
		t.Fatalf("name=%s", d.Name)
	}
	out, err := SafeInvoke(context.Background(), tool, map[string]any{"message": "done"}, JSONSchemaValidator)
	if err != nil {
		t.Fatal(err)
	}
	if out["message"] != "done" {
		t.Fatalf("out=%v", out)
	}
	if _, err := SafeInvoke(context.Background(), tool, map[string]any{"note": "x"}, JSONSchemaValidator); err == nil {
		t.Fatal("schema should reject unknown field")
	}
}
