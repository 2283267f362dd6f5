package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/arodchenko/deskagent/pkg/adapters/llm"
	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
	"github.com/arodchenko/deskagent/pkg/transcript"
)

// scriptedModel replays canned responses and records the windows and
// generation settings it saw.
type scriptedModel struct {
	replies []string
	calls   int
	windows [][]llm.Message
	gcs     []*llm.GenerationConfig
}

func (m *scriptedModel) Name() string { return "scripted" }
func (m *scriptedModel) Generate(ctx context.Context, messages []llm.Message, gc *llm.GenerationConfig) (llm.GenerateResult, error) {
	m.windows = append(m.windows, messages)
	m.gcs = append(m.gcs, gc)
	if m.calls >= len(m.replies) {
		return llm.GenerateResult{}, errors.New("script exhausted")
	}
	r := m.replies[m.calls]
	m.calls++
	return llm.GenerateResult{Text: r}, nil
}

type dateTool struct{}

func (dateTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "get_current_date",
		Description: "Returns the current date.",
		InputSchema: []byte(`{"type":"object","properties":{},"additionalProperties":false}`),
		OutputType:  "string",
	}
}
func (dateTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	return map[string]any{"date": "2026-08-25"}, nil
}

type brokenTool struct{}

func (brokenTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "weather_tool",
		Description: "Weather lookup.",
		InputSchema: []byte(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"],"additionalProperties":false}`),
		OutputType:  "object",
	}
}
func (brokenTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	return nil, errmodel.Network("unreachable", "weather service unreachable", nil, nil)
}

func newTestConfig(t *testing.T, model llm.LLM, extra ...agent.Tool) *agent.Config {
	t.Helper()
	tools := append([]agent.Tool{dateTool{}, brokenTool{}, agent.FinalAnswerTool{}}, extra...)
	ts, _, err := agent.Assemble(tools)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := agent.Configure(ts, model, "You are a helpful assistant.", nil)
	if err != nil {
		t.Fatal(err)
	}
	return &cfg
}

func TestRunToolThenFinalAnswer(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`{"tool": "get_current_date", "args": {}}`,
		`{"tool": "final_answer", "args": {"message": "Today is 2026-08-25."}}`,
	}}
	store := transcript.NewMemoryStore()
	sess, err := NewSession(newTestConfig(t, model), store)
	if err != nil {
		t.Fatal(err)
	}
	res, err := sess.Run(context.Background(), "What is today's date?")
	if err != nil {
		t.Fatal(err)
	}
	if res.Answer != "Today is 2026-08-25." || res.Steps != 2 {
		t.Fatalf("res=%+v", res)
	}

	// second generate call sees the observation from the first tool
	second := model.windows[1]
	last := second[len(second)-1]
	if last.Role != llm.RoleUser || !strings.Contains(last.Content, "2026-08-25") {
		t.Fatalf("last=%+v", last)
	}

	steps, err := sess.Steps(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	kinds := make([]string, 0, len(steps))
	for _, s := range steps {
		kinds = append(kinds, s.Kind)
	}
	want := []string{
		transcript.KindUserMessage,
		transcript.KindModelTurn,
		transcript.KindToolCall,
		transcript.KindObservation,
		transcript.KindModelTurn,
		transcript.KindToolCall,
		transcript.KindFinalAnswer,
	}
	if len(kinds) != len(want) {
		t.Fatalf("kinds=%v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds=%v", kinds)
		}
	}
}

func TestRunToolErrorBecomesObservation(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`{"tool": "weather_tool", "args": {"city": "London"}}`,
		`{"tool": "final_answer", "args": {"message": "The weather service is down, sorry."}}`,
	}}
	sess, err := NewSession(newTestConfig(t, model), nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := sess.Run(context.Background(), "Weather in London?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Answer, "down") {
		t.Fatalf("res=%+v", res)
	}
	second := model.windows[1]
	last := second[len(second)-1]
	if !strings.Contains(last.Content, "Error:") || !strings.Contains(last.Content, "unreachable") {
		t.Fatalf("observation=%q", last.Content)
	}
}

func TestRunUnknownToolBecomesObservation(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`{"tool": "no_such_tool", "args": {}}`,
		`{"tool": "final_answer", "args": {"message": "done"}}`,
	}}
	sess, _ := NewSession(newTestConfig(t, model), nil)
	if _, err := sess.Run(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	last := model.windows[1][len(model.windows[1])-1]
	if !strings.Contains(last.Content, "unknown tool") {
		t.Fatalf("observation=%q", last.Content)
	}
}

func TestRunProseGetsReprompted(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"Let me think about this first.",
		`{"tool": "final_answer", "args": {"message": "done"}}`,
	}}
	sess, _ := NewSession(newTestConfig(t, model), nil)
	res, err := sess.Run(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if res.Answer != "done" {
		t.Fatalf("res=%+v", res)
	}
	last := model.windows[1][len(model.windows[1])-1]
	if !strings.Contains(last.Content, "No tool directive") {
		t.Fatalf("observation=%q", last.Content)
	}
}

func TestRunTwoMalformedDirectivesAbort(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"```json\n{\"tool\": \n```",
		"```json\n{\"tool\": \n```",
	}}
	sess, _ := NewSession(newTestConfig(t, model), nil)
	_, err := sess.Run(context.Background(), "hi")
	if !errmodel.IsCategory(err, errmodel.CategoryModel) {
		t.Fatalf("want model error, got %v", err)
	}
}

func TestRunMaxSteps(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`{"tool": "get_current_date", "args": {}}`,
		`{"tool": "get_current_date", "args": {}}`,
		`{"tool": "get_current_date", "args": {}}`,
	}}
	sess, _ := NewSession(newTestConfig(t, model), nil, WithMaxSteps(3))
	_, err := sess.Run(context.Background(), "loop forever")
	ce := errmodel.From(err)
	if ce == nil || ce.Code != "max_steps" {
		t.Fatalf("want max_steps, got %v", err)
	}
}

func TestRunForwardsGenerationConfig(t *testing.T) {
	model := &scriptedModel{replies: []string{
		`{"tool": "get_current_date", "args": {}}`,
		`{"tool": "final_answer", "args": {"message": "done"}}`,
	}}
	cfg := newTestConfig(t, model)
	gc := &llm.GenerationConfig{Temperature: 0.2, TopP: 0.9, MaxTokens: 512}
	*cfg = agent.WithGeneration(*cfg, gc)
	sess, err := NewSession(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Run(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	if len(model.gcs) != 2 {
		t.Fatalf("gcs=%v", model.gcs)
	}
	for i, got := range model.gcs {
		if got != gc {
			t.Fatalf("call %d saw %+v, want %+v", i, got, gc)
		}
	}
}

func TestNewTikTokenEstimator(t *testing.T) {
	est, err := NewTikTokenEstimator("gpt-4")
	if err != nil {
		t.Skipf("tiktoken not available for model: %v", err)
	}
	if n := est("hello world"); n <= 0 {
		t.Fatalf("tokens=%d", n)
	}
	if _, err := NewTikTokenEstimator("no-such-model"); err == nil {
		t.Fatal("unknown model should fail")
	}
}

func TestHistoryWindowBudget(t *testing.T) {
	// budget admits the system prompt plus roughly two short turns
	h := NewHistory("sys", WithMaxTokens(12))
	h.Append(llm.RoleUser, "aaaa")
	h.Append(llm.RoleAssistant, "bbbb")
	h.Append(llm.RoleUser, "cccc")
	window, log := h.Window()
	if len(window) != 3 {
		t.Fatalf("window=%v", window)
	}
	if window[0].Role != llm.RoleSystem {
		t.Fatalf("window=%v", window)
	}
	if window[1].Content != "bbbb" || window[2].Content != "cccc" {
		t.Fatalf("window=%v", window)
	}
	if log.DroppedCount != 1 || log.IncludedCount != 2 {
		t.Fatalf("log=%+v", log)
	}
}

func TestHistoryWindowKeepsSystemOverBudget(t *testing.T) {
	h := NewHistory("a very long pinned system prompt", WithMaxTokens(5))
	h.Append(llm.RoleUser, "hello")
	window, log := h.Window()
	if len(window) != 1 || window[0].Role != llm.RoleSystem {
		t.Fatalf("window=%v", window)
	}
	if log.DroppedCount != 1 {
		t.Fatalf("log=%+v", log)
	}
}
