package basic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
)

const defaultCurrencyBaseURL = "https://v6.exchangerate-api.com"

type currencyTool struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newCurrencyTool(apiKey, baseURL string, client *http.Client) currencyTool {
	if baseURL == "" {
		baseURL = defaultCurrencyBaseURL
	}
	return currencyTool{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (currencyTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "currency_converter",
		Description: "Converts currency and fetches current exchange rates. Converts the given amount from the base currency into the target currency.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "base_currency": {"type": "string", "description": "Currency code to convert from (for example 'USD')."},
    "target_currency": {"type": "string", "description": "Currency code to convert into (for example 'EUR')."},
    "amount": {"type": "number", "description": "Amount of the base currency to convert. Defaults to 1.0."}
  },
  "required": ["base_currency", "target_currency"],
  "additionalProperties": false
}`),
		OutputType: "object",
	}
}

func (t currencyTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	base, _ := args["base_currency"].(string)
	target, _ := args["target_currency"].(string)
	amount := 1.0
	if v, ok := args["amount"].(float64); ok {
		amount = v
	}

	u := fmt.Sprintf("%s/v6/%s/pair/%s/%s/%g", t.baseURL, t.apiKey,
		strings.ToUpper(base), strings.ToUpper(target), amount)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errmodel.Network("request_build", "building exchange rate request failed", nil, err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errmodel.Network("unreachable", "exchange rate service unreachable", nil, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Result           string  `json:"result"`
		ErrorType        string  `json:"error-type"`
		ConversionRate   float64 `json:"conversion_rate"`
		ConversionResult float64 `json:"conversion_result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errmodel.Network("bad_payload", "decoding exchange rate response failed", nil, err)
	}
	if resp.StatusCode != http.StatusOK || payload.Result == "error" {
		return nil, errmodel.Network("bad_status",
			fmt.Sprintf("exchange rate lookup failed: %s", payload.ErrorType), map[string]any{
				"status": resp.StatusCode,
			}, nil)
	}
	return map[string]any{
		"conversion_rate":   payload.ConversionRate,
		"conversion_result": payload.ConversionResult,
	}, nil
}
