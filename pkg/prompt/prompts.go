package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/arodchenko/deskagent/pkg/agent"
)

// SystemPromptName is the store key for the agent's instruction prompt.
const SystemPromptName = "agent.system"

// DefaultSystemPrompt is the instruction template rendered with the
// assembled toolset. The model answers with exactly one JSON directive per
// step and finishes through the final_answer tool.
const DefaultSystemPrompt = `You are an expert office assistant. You are given a task and must solve it as efficiently as you can using the tools listed below.

You work in a loop of steps. At every step you answer with exactly one JSON object of the form:

{"tool": "<tool name>", "args": {<arguments matching the tool's schema>}}

After each call you receive an observation with the tool's result, which you use to decide your next step. Plan ahead: pick the tool that brings you closest to the answer, and reuse information from earlier observations instead of calling the same tool twice.

When you know the final answer, call the "final_answer" tool with your answer in its "message" argument. The user sees only what you send through "final_answer"; intermediate steps are invisible to them.

Rules:
1. Answer with a single JSON directive and nothing else. No prose outside the JSON.
2. Use only the tools listed below, with the exact names and argument schemas given.
3. If a tool call fails, read the error in the observation, fix the arguments or pick another tool, and try again.
4. Never invent tool results. If you cannot find the information, say so through "final_answer".
5. Dates are written as 'YYYY-MM-DD' and times as 'HH:MM'. Call "get_current_date" when the task says "today" or "tomorrow".
{{- if .Capabilities}}
6. You may rely on these built-in capabilities: {{join .Capabilities ", "}}.
{{- end}}

Available tools:
{{range .Tools}}
- {{.Name}}: {{.Description}}
  Arguments (JSON Schema): {{.Schema}}
  Returns: {{.OutputType}}
{{end}}
Begin. Answer with your first JSON directive.`

type toolView struct {
	Name        string
	Description string
	Schema      string
	OutputType  string
}

type promptData struct {
	Tools        []toolView
	Capabilities []string
}

// RenderSystemPrompt fills body (a template) with the toolset's descriptors
// and the authorized capability list. An empty body uses DefaultSystemPrompt.
func RenderSystemPrompt(body string, descriptors []agent.ToolDescriptor, capabilities []string) (string, error) {
	if body == "" {
		body = DefaultSystemPrompt
	}
	tmpl, err := template.New(SystemPromptName).
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(body)
	if err != nil {
		return "", fmt.Errorf("parsing system prompt template: %w", err)
	}
	data := promptData{Capabilities: capabilities}
	for _, d := range descriptors {
		data.Tools = append(data.Tools, toolView{
			Name:        d.Name,
			Description: d.Description,
			Schema:      compactJSON(d.InputSchema),
			OutputType:  d.OutputType,
		})
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}
	return buf.String(), nil
}

func compactJSON(b []byte) string {
	var buf bytes.Buffer
	for _, line := range strings.Split(string(b), "\n") {
		buf.WriteString(strings.TrimSpace(line))
	}
	return buf.String()
}
