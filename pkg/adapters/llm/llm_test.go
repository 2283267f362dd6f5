package llm

import (
	"context"
	"testing"

	"github.com/arodchenko/deskagent/pkg/errmodel"
)

type fakeLLM struct{}

func (fakeLLM) Name() string { return "fake" }
func (fakeLLM) Generate(ctx context.Context, messages []Message, gc *GenerationConfig) (GenerateResult, error) {
	return GenerateResult{Text: "ok"}, nil
}

func TestRegistry(t *testing.T) {
	err := Register("fake", func(ctx context.Context, cfg map[string]any) (LLM, error) {
		return fakeLLM{}, nil
	})
	if err != nil && err.Error() != `llm: provider "fake" already registered` {
		t.Fatal(err)
	}
	f, ok := Resolve("fake")
	if !ok {
		t.Fatal("factory not resolved")
	}
	m, err := f(context.Background(), nil)
	if err != nil || m.Name() != "fake" {
		t.Fatalf("m=%v err=%v", m, err)
	}
	if err := Register("", nil); err == nil {
		t.Fatal("empty name should fail")
	}
}

func TestParseTurn_Content(t *testing.T) {
	turn, err := ParseTurn("The weather in London is mild today.")
	if err != nil {
		t.Fatal(err)
	}
	if turn.ToolCall != nil || turn.Content == "" {
		t.Fatalf("unexpected turn: %+v", turn)
	}
}

func TestParseTurn_BareDirective(t *testing.T) {
	turn, err := ParseTurn(`{"tool":"weather_tool","args":{"city":"London","forecast_timestamps":8}}`)
	if err != nil {
		t.Fatal(err)
	}
	if turn.ToolCall == nil || turn.ToolCall.Name != "weather_tool" {
		t.Fatalf("unexpected turn: %+v", turn)
	}
	if v, ok := turn.ToolCall.Args["forecast_timestamps"].(float64); !ok || v != 8 {
		t.Fatalf("args=%v", turn.ToolCall.Args)
	}
}

func TestParseTurn_FencedDirective(t *testing.T) {
	text := "I will check the calendar first.\n```json\n{\"tool\":\"list_meetings\",\"args\":{}}\n```"
	turn, err := ParseTurn(text)
	if err != nil {
		t.Fatal(err)
	}
	if turn.ToolCall == nil || turn.ToolCall.Name != "list_meetings" {
		t.Fatalf("unexpected turn: %+v", turn)
	}
}

func TestParseTurn_TrailingDirective(t *testing.T) {
	text := `Let me convert that. {"tool":"currency_converter","args":{"base_currency":"USD","target_currency":"EUR","amount":10}}`
	turn, err := ParseTurn(text)
	if err != nil {
		t.Fatal(err)
	}
	if turn.ToolCall == nil || turn.ToolCall.Name != "currency_converter" {
		t.Fatalf("unexpected turn: %+v", turn)
	}
}

func TestParseTurn_Malformed(t *testing.T) {
	for _, text := range []string{
		"```json\n{not json}\n```",
		`{"args":{"city":"London"}}`,
	} {
		_, err := ParseTurn(text)
		if !errmodel.IsCategory(err, errmodel.CategoryModel) {
			t.Fatalf("text %q: want model error, got %v", text, err)
		}
		ce := errmodel.From(err)
		if ce.Code != "malformed_response" {
			t.Fatalf("code=%s", ce.Code)
		}
	}
}
