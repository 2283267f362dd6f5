package openai

import (
	"context"
	"os"

	oa "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/arodchenko/deskagent/pkg/adapters/llm"
	"github.com/arodchenko/deskagent/pkg/errmodel"
)

const defaultModel = "gpt-5-nano"

type clientWrapper struct {
	client oa.Client
	model  string
}

func (c *clientWrapper) Name() string { return "openai" }

func (c *clientWrapper) Generate(ctx context.Context, messages []llm.Message, gc *llm.GenerationConfig) (llm.GenerateResult, error) {
	// Map our messages to SDK union type
	mm := make([]oa.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleUser:
			mm = append(mm, oa.UserMessage(m.Content))
		case llm.RoleSystem:
			mm = append(mm, oa.SystemMessage(m.Content))
		case llm.RoleAssistant:
			mm = append(mm, oa.AssistantMessage(m.Content))
		default:
			mm = append(mm, oa.UserMessage(m.Content))
		}
	}

	params := oa.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: mm,
	}
	if gc != nil {
		if gc.Temperature > 0 {
			params.Temperature = oa.Float(gc.Temperature)
		}
		if gc.TopP > 0 {
			params.TopP = oa.Float(gc.TopP)
		}
		if gc.RepetitionPenalty != 0 {
			params.FrequencyPenalty = oa.Float(gc.RepetitionPenalty)
		}
		if gc.MaxTokens > 0 {
			params.MaxCompletionTokens = oa.Int(int64(gc.MaxTokens))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.GenerateResult{}, errmodel.Model("unavailable", "openai chat completion failed", map[string]any{
			"model": c.model,
		}, err)
	}
	var out string
	if len(resp.Choices) > 0 {
		out = resp.Choices[0].Message.Content
	}
	usage := resp.Usage
	return llm.GenerateResult{
		Text:         out,
		PromptTokens: int(usage.PromptTokens),
		OutputTokens: int(usage.CompletionTokens),
		TotalTokens:  int(usage.TotalTokens),
		Model:        c.model,
	}, nil
}

// Factory registers the OpenAI LLM provider. cfg keys: api_key, client_id
// (optional organization), model.
func Factory(ctx context.Context, cfg map[string]any) (llm.LLM, error) { // nolint: revive
	_ = ctx
	apiKey := os.Getenv("OPENAI_API_KEY")
	if v, ok := cfg["api_key"].(string); ok && v != "" {
		apiKey = v
	}
	if apiKey == "" {
		return nil, errmodel.Config("missing_key", "openai: missing API key; set OPENAI_API_KEY or cfg.api_key", nil)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if v, ok := cfg["client_id"].(string); ok && v != "" {
		opts = append(opts, option.WithOrganization(v))
	}
	model := defaultModel
	if v, ok := cfg["model"].(string); ok && v != "" {
		model = v
	}

	c := oa.NewClient(opts...)
	return &clientWrapper{client: c, model: model}, nil
}

func init() {
	_ = llm.Register("openai", Factory)
}
