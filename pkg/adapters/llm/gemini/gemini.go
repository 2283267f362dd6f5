package gemini

import (
	"context"
	"os"

	genai "google.golang.org/genai"

	"github.com/arodchenko/deskagent/pkg/adapters/llm"
	"github.com/arodchenko/deskagent/pkg/errmodel"
)

const defaultModel = "gemini-2.5-flash-lite"

type clientWrapper struct {
	client *genai.Client
	model  string
}

func (c *clientWrapper) Name() string { return "gemini" }

func (c *clientWrapper) Generate(ctx context.Context, messages []llm.Message, gc *llm.GenerationConfig) (llm.GenerateResult, error) {
	// System turns map to the system instruction; the rest is concatenated
	// into a single user turn.
	var system, text string
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		if m.Role == llm.RoleSystem {
			system += m.Content + "\n"
			continue
		}
		text += m.Content + "\n"
	}
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if gc != nil {
		if gc.Temperature > 0 {
			cfg.Temperature = genai.Ptr(float32(gc.Temperature))
		}
		if gc.TopP > 0 {
			cfg.TopP = genai.Ptr(float32(gc.TopP))
		}
		if gc.RepetitionPenalty != 0 {
			cfg.FrequencyPenalty = genai.Ptr(float32(gc.RepetitionPenalty))
		}
		if gc.MaxTokens > 0 {
			cfg.MaxOutputTokens = int32(gc.MaxTokens)
		}
	}
	parts := []*genai.Part{{Text: text}}
	res, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{{Parts: parts}}, cfg)
	if err != nil {
		return llm.GenerateResult{}, errmodel.Model("unavailable", "gemini generation failed", map[string]any{
			"model": c.model,
		}, err)
	}
	return llm.GenerateResult{Text: res.Text(), Model: c.model}, nil
}

// Factory creates a Gemini LLM client using GOOGLE_API_KEY by default.
func Factory(ctx context.Context, cfg map[string]any) (llm.LLM, error) { // nolint: revive
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if v, ok := cfg["api_key"].(string); ok && v != "" {
		apiKey = v
	}
	if apiKey == "" {
		return nil, errmodel.Config("missing_key", "gemini: missing API key; set GOOGLE_API_KEY or cfg.api_key", nil)
	}
	// Prefer Gemini API backend
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	model := defaultModel
	if v, ok := cfg["model"].(string); ok && v != "" {
		model = v
	}
	return &clientWrapper{client: client, model: model}, nil
}

func init() {
	_ = llm.Register("gemini", Factory)
}
