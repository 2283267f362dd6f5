package eval

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/arodchenko/deskagent/pkg/agent"
)

func TestEvaluatePromptFixtures(t *testing.T) {
	fsys := fstest.MapFS{
		"cases/a.json": {Data: []byte(`{"name":"a","prompt":"Hello {{.name}}","vars":{"name":"Ada"},"expect":{"contains":["Hello Ada"]}}`)},
		"cases/b.json": {Data: []byte(`{"name":"b","prompt":"API key: {{.key}}","vars":{"key":"***"},"expect":{"not_contains":["sk-"]}}`)},
	}
	score, total, passed, details, err := EvaluatePromptFixtures(fsys, "cases")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || passed != 2 || score != 1 {
		t.Fatalf("score=%v total=%d passed=%d details=%v", score, total, passed, details)
	}

	// missing variable fails the case
	fsysFail := fstest.MapFS{
		"cases/x.json": {Data: []byte(`{"name":"x","prompt":"Hello {{.name}}"}`)},
	}
	score2, total2, passed2, _, _ := EvaluatePromptFixtures(fsysFail, "cases")
	if total2 != 1 || passed2 != 0 || score2 != 0 {
		t.Fatalf("score=%v total=%d passed=%d", score2, total2, passed2)
	}
}

func TestScriptedModelExhaustion(t *testing.T) {
	m := &ScriptedModel{Replies: []string{"one"}}
	if _, err := m.Generate(context.Background(), nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Generate(context.Background(), nil, nil); err == nil {
		t.Fatal("exhausted script should error")
	}
}

func TestReplaySessionCase(t *testing.T) {
	ts, _, err := agent.Assemble([]agent.Tool{agent.FinalAnswerTool{}})
	if err != nil {
		t.Fatal(err)
	}
	details := ReplaySessionCase(context.Background(), ts, SessionCase{
		Name:    "greeting",
		Message: "say hi",
		Turns:   []string{`{"tool": "final_answer", "args": {"message": "Hi there!"}}`},
		Expect:  Expectation{Contains: []string{"Hi there"}},
	})
	if details != nil {
		t.Fatalf("details=%v", details)
	}

	details = ReplaySessionCase(context.Background(), ts, SessionCase{
		Name:    "mismatch",
		Message: "say hi",
		Turns:   []string{`{"tool": "final_answer", "args": {"message": "Hi there!"}}`},
		Expect:  Expectation{Contains: []string{"Goodbye"}},
	})
	if len(details) != 1 {
		t.Fatalf("details=%v", details)
	}
}
