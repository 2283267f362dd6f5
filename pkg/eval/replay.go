package eval

import (
	"context"
	"errors"
	"strings"

	"github.com/arodchenko/deskagent/pkg/adapters/llm"
	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/runtime"
	"github.com/arodchenko/deskagent/pkg/transcript"
)

// ScriptedModel replays canned model turns in order. It satisfies llm.LLM so
// sessions can be exercised without a live provider.
type ScriptedModel struct {
	Replies []string
	next    int
}

func (m *ScriptedModel) Name() string { return "scripted" }

func (m *ScriptedModel) Generate(ctx context.Context, messages []llm.Message, gc *llm.GenerationConfig) (llm.GenerateResult, error) {
	if m.next >= len(m.Replies) {
		return llm.GenerateResult{}, errors.New("scripted model: no replies left")
	}
	r := m.Replies[m.next]
	m.next++
	return llm.GenerateResult{Text: r}, nil
}

// SessionCase is one scripted end-to-end case: a user message, the model
// turns to replay, and expectations on the final answer.
type SessionCase struct {
	Name    string      `json:"name"`
	Message string      `json:"message"`
	Turns   []string    `json:"turns"`
	Expect  Expectation `json:"expect"`
}

// ReplaySessionCase runs one case against the given toolset and reports the
// failures (nil means pass). The session records into a memory transcript.
func ReplaySessionCase(ctx context.Context, ts *agent.Toolset, c SessionCase) []string {
	model := &ScriptedModel{Replies: c.Turns}
	cfg, err := agent.Configure(ts, model, "replay", nil)
	if err != nil {
		return []string{c.Name + ": configure: " + err.Error()}
	}
	sess, err := runtime.NewSession(&cfg, transcript.NewMemoryStore())
	if err != nil {
		return []string{c.Name + ": session: " + err.Error()}
	}
	res, err := sess.Run(ctx, c.Message)
	if err != nil {
		return []string{c.Name + ": run: " + err.Error()}
	}
	var details []string
	for _, s := range c.Expect.Contains {
		if !strings.Contains(res.Answer, s) {
			details = append(details, c.Name+": missing contains: "+s)
		}
	}
	for _, s := range c.Expect.NotContains {
		if strings.Contains(res.Answer, s) {
			details = append(details, c.Name+": unexpected contains: "+s)
		}
	}
	return details
}
