package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/arodchenko/deskagent/pkg/adapters/llm"
	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
	"github.com/arodchenko/deskagent/pkg/providers"
)

var _ providers.Provider = (*Provider)(nil)

// DefaultSenderAddress is the address replies are sent from when the model
// does not specify one.
const DefaultSenderAddress = "agent@example.com"

// Provider projects a Mailbox into agent tools. Summarization and reply
// generation call back into the model; translation goes through Translator.
type Provider struct {
	mb         *Mailbox
	model      llm.LLM
	translator *Translator
}

func NewProvider(mb *Mailbox, model llm.LLM, translator *Translator) *Provider {
	if translator == nil {
		translator = NewTranslator("")
	}
	return &Provider{mb: mb, model: model, translator: translator}
}

func (p *Provider) Name() string { return "mail" }

// Mailbox exposes the underlying state for UI inspection.
func (p *Provider) Mailbox() *Mailbox { return p.mb }

func (p *Provider) Tools() []agent.Tool {
	return []agent.Tool{
		listThreadsTool{p.mb},
		threadDetailsTool{p.mb},
		summarizeThreadTool{p.mb, p.model},
		generateReplyTool{p.mb, p.model},
		translateThreadTool{p.mb, p.translator},
	}
}

type listThreadsTool struct{ mb *Mailbox }

func (listThreadsTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "list_email_threads",
		Description: "Lists all available email threads with their subjects.",
		InputSchema: []byte(`{"type": "object", "properties": {}, "additionalProperties": false}`),
		OutputType:  "string",
	}
}

func (t listThreadsTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	var b strings.Builder
	for _, info := range t.mb.ListThreads() {
		fmt.Fprintf(&b, "ID: %s, Subject: %s\n", info.ThreadID, info.Subject)
	}
	return map[string]any{"threads": b.String()}, nil
}

type threadDetailsTool struct{ mb *Mailbox }

func (threadDetailsTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "get_email_thread_details",
		Description: "Returns the full content of all emails in the given thread.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "thread_id": {"type": "string", "description": "ID of the email thread to fetch."}
  },
  "required": ["thread_id"],
  "additionalProperties": false
}`),
		OutputType: "string",
	}
}

func (t threadDetailsTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	threadID, _ := args["thread_id"].(string)
	full, lines := t.mb.ThreadEmailsAsString(threadID)
	if len(lines) == 0 {
		return nil, errmodel.Validation("not_found",
			fmt.Sprintf("thread %q not found or empty", threadID), nil)
	}
	return map[string]any{"thread": full}, nil
}

type summarizeThreadTool struct {
	mb    *Mailbox
	model llm.LLM
}

func (summarizeThreadTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "summarize_email_thread",
		Description: "Summarizes the content of the given email thread using the language model.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "thread_id": {"type": "string", "description": "ID of the email thread to summarize."}
  },
  "required": ["thread_id"],
  "additionalProperties": false
}`),
		OutputType: "string",
	}
}

func (t summarizeThreadTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	threadID, _ := args["thread_id"].(string)
	summary, err := SummarizeThread(ctx, t.mb, threadID, t.model)
	if err != nil {
		return nil, err
	}
	return map[string]any{"summary": summary}, nil
}

type generateReplyTool struct {
	mb    *Mailbox
	model llm.LLM
}

func (generateReplyTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "generate_email_reply",
		Description: "Generates a reply to the last email in a thread using the language model, honoring an optional comment, and adds it to the mailbox.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "thread_id": {"type": "string", "description": "ID of the email thread to reply to."},
    "sender_address": {"type": "string", "description": "Email address the agent should use as the sender. Defaults to agent@example.com."},
    "comment": {"type": "string", "description": "Optional comment or instruction for the reply. Not the email text itself, only the direction the reply should take."}
  },
  "required": ["thread_id"],
  "additionalProperties": false
}`),
		OutputType: "string",
	}
}

func (t generateReplyTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	threadID, _ := args["thread_id"].(string)
	sender, _ := args["sender_address"].(string)
	if sender == "" {
		sender = DefaultSenderAddress
	}
	comment, _ := args["comment"].(string)

	reply, err := GenerateReply(ctx, t.mb, threadID, t.model, sender, comment)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"message":  fmt.Sprintf("Reply to thread %q generated and added.\nGenerated email:\n%s", threadID, reply.Body),
		"email_id": reply.ID,
	}, nil
}

type translateThreadTool struct {
	mb         *Mailbox
	translator *Translator
}

func (translateThreadTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "translate_email_thread",
		Description: "Translates the content of the given email thread into the requested language.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "thread_id": {"type": "string", "description": "ID of the email thread to translate."},
    "language": {"type": "string", "description": "Target language code for the translation (for example 'en', 'ru', 'de')."}
  },
  "required": ["thread_id", "language"],
  "additionalProperties": false
}`),
		OutputType: "string",
	}
}

func (t translateThreadTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	threadID, _ := args["thread_id"].(string)
	language, _ := args["language"].(string)
	full, lines := t.mb.ThreadEmailsAsString(threadID)
	if len(lines) == 0 {
		return nil, errmodel.Validation("not_found",
			fmt.Sprintf("thread %q not found or empty", threadID), nil)
	}
	translated, err := t.translator.Translate(ctx, full, language)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"message": fmt.Sprintf("Thread %q translated to %q. Translation: %s", threadID, language, translated),
	}, nil
}
