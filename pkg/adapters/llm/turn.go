package llm

import (
	"encoding/json"
	"strings"

	"github.com/arodchenko/deskagent/pkg/errmodel"
)

// ToolCall is a structured tool-invocation request produced by the model.
type ToolCall struct {
	Name string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// Turn is the parsed form of one model output: either free-text content or
// a tool call, never both.
type Turn struct {
	Content  string
	ToolCall *ToolCall
}

// ParseTurn converts raw model text into a Turn. The model requests a tool
// by emitting a JSON object {"tool": name, "args": {...}}, either as the
// whole reply or inside a ```json fenced block. Text carrying no directive
// is a plain content turn. A directive that is present but does not decode
// into a tool call is a malformed response.
func ParseTurn(text string) (Turn, error) {
	raw, found := extractDirective(text)
	if !found {
		return Turn{Content: strings.TrimSpace(text)}, nil
	}
	var tc ToolCall
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&tc); err != nil {
		return Turn{}, errmodel.Model("malformed_response", "tool directive is not valid JSON", map[string]any{
			"directive": raw,
		}, err)
	}
	if tc.Name == "" {
		return Turn{}, errmodel.Model("malformed_response", "tool directive is missing the tool name", map[string]any{
			"directive": raw,
		}, nil)
	}
	if tc.Args == nil {
		tc.Args = map[string]any{}
	}
	normalizeNumbers(tc.Args)
	return Turn{ToolCall: &tc}, nil
}

// extractDirective finds the JSON directive in the model text. It accepts
// a fenced ```json block, a bare object as the whole (trimmed) reply, or a
// trailing object starting at the last "{\"tool\"" occurrence.
func extractDirective(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```json"); i >= 0 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j]), true
		}
		return strings.TrimSpace(rest), true
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s, true
	}
	if i := strings.LastIndex(s, `{"tool"`); i >= 0 {
		return strings.TrimSpace(s[i:]), true
	}
	return "", false
}

// normalizeNumbers rewrites json.Number values to float64 so tool argument
// maps look the same regardless of how they were decoded.
func normalizeNumbers(m map[string]any) {
	for k, v := range m {
		switch t := v.(type) {
		case json.Number:
			if f, err := t.Float64(); err == nil {
				m[k] = f
			} else {
				m[k] = t.String()
			}
		case map[string]any:
			normalizeNumbers(t)
		case []any:
			for i, e := range t {
				if n, ok := e.(json.Number); ok {
					if f, err := n.Float64(); err == nil {
						t[i] = f
					}
				} else if mm, ok := e.(map[string]any); ok {
					normalizeNumbers(mm)
				}
			}
		}
	}
}
