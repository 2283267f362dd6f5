// Package basic holds the reference-data tools: currency conversion,
// weather, and world time. Each tool wraps a public HTTP API.
package basic

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
	"github.com/arodchenko/deskagent/pkg/providers"
)

var _ providers.Provider = (*Provider)(nil)

// Provider bundles the currency, weather and time tools.
type Provider struct {
	tools []agent.Tool
}

// Options override the public endpoints. Zero values mean production URLs.
type Options struct {
	CurrencyBaseURL string
	WeatherBaseURL  string
	GeoBaseURL      string
	TimeBaseURL     string
}

// NewProvider builds the provider. Both API keys are required; a missing
// key is a configuration error surfaced at startup, not at call time.
func NewProvider(currencyAPIKey, weatherAPIKey string, opts Options) (*Provider, error) {
	if currencyAPIKey == "" {
		return nil, errmodel.Config("missing_key", "currency API key is required", nil)
	}
	if weatherAPIKey == "" {
		return nil, errmodel.Config("missing_key", "weather API key is required", nil)
	}
	client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	return &Provider{
		tools: []agent.Tool{
			newCurrencyTool(currencyAPIKey, opts.CurrencyBaseURL, client),
			newWeatherTool(weatherAPIKey, opts.WeatherBaseURL, opts.GeoBaseURL, client),
			newTimeTool(opts.TimeBaseURL, client),
		},
	}, nil
}

func (p *Provider) Name() string { return "basic" }

func (p *Provider) Tools() []agent.Tool { return p.tools }
