package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arodchenko/deskagent/pkg/errmodel"
)

const defaultTranslateBaseURL = "https://translate.googleapis.com"

// Translator translates text via the public Google Translate endpoint.
// Source language is auto-detected.
type Translator struct {
	baseURL string
	client  *http.Client
}

// NewTranslator builds a translator. An empty baseURL uses the public
// endpoint; tests point it at a local server.
func NewTranslator(baseURL string) *Translator {
	if baseURL == "" {
		baseURL = defaultTranslateBaseURL
	}
	return &Translator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// Translate returns text translated to the target language code ("en", "de", ...).
func (tr *Translator) Translate(ctx context.Context, text, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", strings.ToLower(target))
	q.Set("dt", "t")
	q.Set("q", text)
	u := tr.baseURL + "/translate_a/single?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", errmodel.Network("request_build", "building translate request failed", nil, err)
	}
	resp, err := tr.client.Do(req)
	if err != nil {
		return "", errmodel.Network("unreachable", "translate service unreachable", nil, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errmodel.Network("bad_status",
			fmt.Sprintf("translate service returned status %d", resp.StatusCode), nil, nil)
	}

	// The gtx response is a nested array; segment texts sit at [0][i][0].
	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errmodel.Network("bad_payload", "decoding translate response failed", nil, err)
	}
	if len(payload) == 0 {
		return "", errmodel.Network("bad_payload", "translate response is empty", nil, nil)
	}
	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", errmodel.Network("bad_payload", "decoding translate segments failed", nil, err)
	}
	var b strings.Builder
	for _, seg := range segments {
		if len(seg) > 0 {
			if s, ok := seg[0].(string); ok {
				b.WriteString(s)
			}
		}
	}
	out := b.String()
	if out == "" {
		return "", errmodel.Network("empty_result", "translator returned an empty result", nil, nil)
	}
	return out, nil
}
