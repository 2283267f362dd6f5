// Package runtime drives agent sessions: it keeps the conversation history
// under a token budget and runs the think/act/observe loop against the
// configured model and toolset.
package runtime

import (
	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/arodchenko/deskagent/pkg/adapters/llm"
)

// TokenEstimator estimates token usage of text content.
type TokenEstimator func(text string) int

// NewTikTokenEstimator returns a TokenEstimator backed by tiktoken-go for
// the given model ("gpt-4o", "gpt-3.5-turbo", ...). Unknown models error.
func NewTikTokenEstimator(model string) (TokenEstimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, err
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}

// WindowLog summarizes a windowing decision.
type WindowLog struct {
	TotalTokens   int // tokens of included messages
	DroppedCount  int // messages excluded due to budget
	IncludedCount int
}

// History accumulates a session's messages and produces budget-bounded
// windows for the model. The system prompt is pinned and always included;
// the most recent turns fill the remaining budget, oldest dropped first.
type History struct {
	estimate  TokenEstimator
	maxTokens int
	system    llm.Message
	turns     []llm.Message
}

// Option configures a History.
type Option func(*History)

// WithTokenEstimator sets the token estimator. Defaults to rune length.
func WithTokenEstimator(est TokenEstimator) Option {
	return func(h *History) {
		if est != nil {
			h.estimate = est
		}
	}
}

// WithMaxTokens sets the window budget. Defaults to a large value.
func WithMaxTokens(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxTokens = n
		}
	}
}

// NewHistory creates a history pinned to the given system prompt.
func NewHistory(systemPrompt string, opts ...Option) *History {
	h := &History{
		estimate:  func(s string) int { return len([]rune(s)) },
		maxTokens: 1_000_000_000,
		system:    llm.Message{Role: llm.RoleSystem, Content: systemPrompt},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Append adds a turn to the full history.
func (h *History) Append(role, content string) {
	h.turns = append(h.turns, llm.Message{Role: role, Content: content})
}

// Len reports the number of non-system turns recorded.
func (h *History) Len() int { return len(h.turns) }

// Window returns the messages to send: the pinned system prompt followed by
// the longest suffix of turns that fits the budget.
func (h *History) Window() ([]llm.Message, WindowLog) {
	budget := h.maxTokens
	used := h.estimate(h.system.Content)
	// the system prompt is always included, even over budget
	start := len(h.turns)
	for start > 0 {
		cost := h.estimate(h.turns[start-1].Content)
		if used+cost > budget {
			break
		}
		used += cost
		start--
	}
	window := make([]llm.Message, 0, 1+len(h.turns)-start)
	window = append(window, h.system)
	window = append(window, h.turns[start:]...)
	return window, WindowLog{
		TotalTokens:   used,
		DroppedCount:  start,
		IncludedCount: len(h.turns) - start,
	}
}
