package agent

import (
	"context"
	"testing"

	"github.com/arodchenko/deskagent/pkg/adapters/llm"
)

type staticModel struct{}

func (staticModel) Name() string { return "static" }
func (staticModel) Generate(ctx context.Context, messages []llm.Message, gc *llm.GenerationConfig) (llm.GenerateResult, error) {
	return llm.GenerateResult{Text: "static"}, nil
}

func TestConfigure(t *testing.T) {
	ts, _, _ := Assemble([]Tool{FinalAnswerTool{}})
	cfg, err := Configure(ts, staticModel{}, "prompt v1", []string{"datetime", "json"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SystemPrompt != "prompt v1" || len(cfg.AuthorizedCapabilities) != 2 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if _, err := Configure(nil, staticModel{}, "", nil); err == nil {
		t.Fatal("nil toolset should fail")
	}
	if _, err := Configure(ts, nil, "", nil); err == nil {
		t.Fatal("nil model should fail")
	}
}

func TestWithToolOverride_FinalAnswer(t *testing.T) {
	ts, _, _ := Assemble(
		[]Tool{markerTool{"list_meetings", "cal"}},
		[]Tool{FinalAnswerTool{}},
	)
	cfg, err := Configure(ts, staticModel{}, "p", nil)
	if err != nil {
		t.Fatal(err)
	}

	custom := FinalAnswerTool{Description: "Sends a human-readable message or clarifying question to the user."}
	next, err := WithToolOverride(cfg, custom)
	if err != nil {
		t.Fatal(err)
	}

	got, ok := next.Tools.Resolve(FinalAnswerName)
	if !ok {
		t.Fatal("final_answer missing after override")
	}
	if got.Describe().Description != custom.Description {
		t.Fatalf("override not applied: %q", got.Describe().Description)
	}
	// other entries untouched
	if _, ok := next.Tools.Resolve("list_meetings"); !ok {
		t.Fatal("unrelated entry lost")
	}
	// original config unchanged
	orig, _ := cfg.Tools.Resolve(FinalAnswerName)
	if orig.Describe().Description == custom.Description {
		t.Fatal("original config mutated")
	}
}

func TestWithGeneration(t *testing.T) {
	ts, _, _ := Assemble([]Tool{FinalAnswerTool{}})
	cfg, _ := Configure(ts, staticModel{}, "p", nil)
	if cfg.Generation != nil {
		t.Fatalf("generation should default to nil, got %+v", cfg.Generation)
	}
	gc := &llm.GenerationConfig{Temperature: 0.7, MaxTokens: 256}
	next := WithGeneration(cfg, gc)
	if next.Generation != gc || cfg.Generation != nil {
		t.Fatalf("next=%+v cfg=%+v", next.Generation, cfg.Generation)
	}
}

func TestWithSystemPrompt(t *testing.T) {
	ts, _, _ := Assemble([]Tool{FinalAnswerTool{}})
	cfg, _ := Configure(ts, staticModel{}, "first", nil)
	next := WithSystemPrompt(cfg, "second")
	if next.SystemPrompt != "second" || cfg.SystemPrompt != "first" {
		t.Fatalf("next=%q cfg=%q", next.SystemPrompt, cfg.SystemPrompt)
	}
	// both mutations are independently applicable
	next2, err := WithToolOverride(next, markerTool{"extra", "x"})
	if err != nil {
		t.Fatal(err)
	}
	if next2.SystemPrompt != "second" {
		t.Fatal("prompt lost across tool override")
	}
}
