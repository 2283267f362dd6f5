package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/arodchenko/deskagent/pkg/adapters/llm"
	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
	"github.com/arodchenko/deskagent/pkg/transcript"
)

// DefaultMaxSteps bounds the think/act/observe loop per user message.
const DefaultMaxSteps = 15

// Result is the outcome of one Run.
type Result struct {
	Answer string
	Steps  int
}

// Session drives the agent loop for one conversation. Not safe for
// concurrent Runs; the UI serializes access per session.
type Session struct {
	ID       string
	cfg      *agent.Config
	history  *History
	steps    transcript.Store
	maxSteps int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithMaxSteps caps tool-call rounds per user message.
func WithMaxSteps(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// WithHistoryOptions forwards options to the session's history window.
func WithHistoryOptions(opts ...Option) SessionOption {
	return func(s *Session) {
		h := NewHistory(s.cfg.SystemPrompt, opts...)
		s.history = h
	}
}

// NewSession creates a session over the given agent configuration. The
// transcript store records every step; pass a MemoryStore for ephemeral runs.
func NewSession(cfg *agent.Config, steps transcript.Store, opts ...SessionOption) (*Session, error) {
	if cfg == nil || cfg.Tools == nil || cfg.Model == nil {
		return nil, errmodel.Validation("invalid_config", "session needs a complete agent configuration", nil)
	}
	if steps == nil {
		steps = transcript.NewMemoryStore()
	}
	s := &Session{
		ID:       uuid.NewString(),
		cfg:      cfg,
		history:  NewHistory(cfg.SystemPrompt),
		steps:    steps,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) record(ctx context.Context, kind, tool string, payload map[string]any) {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	// transcript failures must not break the loop
	_, _ = s.steps.AppendStep(ctx, transcript.StepRecord{
		SessionID: s.ID,
		Kind:      kind,
		Tool:      tool,
		Payload:   raw,
	})
}

// Run processes one user message through the loop: generate a model turn,
// parse its directive, invoke the tool, feed the observation back, and stop
// at final_answer. Tool failures become observations the model can react
// to; model failures abort the run.
func (s *Session) Run(ctx context.Context, userMessage string) (Result, error) {
	tr := otel.Tracer("runtime/session")
	ctx, span := tr.Start(ctx, "Session.Run", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	s.history.Append(llm.RoleUser, userMessage)
	s.record(ctx, transcript.KindUserMessage, "", map[string]any{"text": userMessage})

	parseFailures := 0
	for step := 1; step <= s.maxSteps; step++ {
		window, _ := s.history.Window()
		res, err := s.cfg.Model.Generate(ctx, window, s.cfg.Generation)
		if err != nil {
			s.record(ctx, transcript.KindError, "", map[string]any{"error": err.Error()})
			return Result{Steps: step}, err
		}
		s.history.Append(llm.RoleAssistant, res.Text)
		s.record(ctx, transcript.KindModelTurn, "", map[string]any{"text": res.Text})

		turn, err := llm.ParseTurn(res.Text)
		if err != nil {
			// one malformed directive gets fed back; a second in a row aborts
			parseFailures++
			if parseFailures >= 2 {
				return Result{Steps: step}, err
			}
			s.observe(ctx, "", fmt.Sprintf("Your reply was not a valid tool directive (%v). Answer with exactly one JSON object of the form {\"tool\": ..., \"args\": {...}}.", err))
			continue
		}
		if turn.ToolCall == nil {
			// plain prose: remind the model of the protocol
			parseFailures = 0
			s.observe(ctx, "", "No tool directive found in your reply. Answer with exactly one JSON object of the form {\"tool\": ..., \"args\": {...}}; use \"final_answer\" to finish.")
			continue
		}
		parseFailures = 0

		call := turn.ToolCall
		s.record(ctx, transcript.KindToolCall, call.Name, map[string]any{"args": call.Args})

		tool, ok := s.cfg.Tools.Resolve(call.Name)
		if !ok {
			s.observe(ctx, call.Name, fmt.Sprintf("Error: unknown tool %q. Use one of the tools listed in your instructions.", call.Name))
			continue
		}

		out, err := agent.SafeInvoke(ctx, tool, call.Args, agent.JSONSchemaValidator)
		if err != nil {
			s.observe(ctx, call.Name, "Error: "+err.Error())
			continue
		}

		if call.Name == agent.FinalAnswerName {
			answer, _ := out["message"].(string)
			s.record(ctx, transcript.KindFinalAnswer, call.Name, map[string]any{"message": answer})
			span.SetAttributes(attribute.Int("session.steps", step))
			return Result{Answer: answer, Steps: step}, nil
		}

		obs, merr := json.Marshal(out)
		if merr != nil {
			obs = []byte(fmt.Sprintf("%v", out))
		}
		s.observe(ctx, call.Name, "Observation: "+string(obs))
	}

	err := errmodel.Model("max_steps", fmt.Sprintf("no final answer after %d steps", s.maxSteps), nil, nil)
	s.record(ctx, transcript.KindError, "", map[string]any{"error": err.Error()})
	return Result{Steps: s.maxSteps}, err
}

// observe feeds text back to the model as a user-role observation turn.
func (s *Session) observe(ctx context.Context, tool, text string) {
	s.history.Append(llm.RoleUser, text)
	s.record(ctx, transcript.KindObservation, tool, map[string]any{"text": text})
}

// Steps lists the session's transcript after the given sequence.
func (s *Session) Steps(ctx context.Context, afterSeq int64) ([]transcript.StepRecord, error) {
	return s.steps.ListSteps(ctx, s.ID, afterSeq, 0)
}
