package basic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
)

const defaultTimeBaseURL = "https://timeapi.io"

// commonTimezones seed the error hint when a zone lookup fails.
var commonTimezones = []string{
	"Europe/Moscow", "Europe/London", "Europe/Paris", "Europe/Berlin",
	"America/New_York", "America/Los_Angeles", "America/Chicago",
	"Asia/Tokyo", "Asia/Shanghai", "Asia/Dubai", "Asia/Kolkata",
	"Australia/Sydney", "Pacific/Auckland",
}

type timeTool struct {
	baseURL string
	client  *http.Client
}

func newTimeTool(baseURL string, client *http.Client) timeTool {
	if baseURL == "" {
		baseURL = defaultTimeBaseURL
	}
	return timeTool{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (timeTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "time_tool",
		Description: "Fetches the current time and date for the given location using IANA time zone identifiers.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "time_zone": {"type": "string", "description": "IANA time zone identifier (for example 'Europe/Moscow', 'America/New_York', 'Asia/Tokyo'). Defaults to 'Europe/Moscow'."}
  },
  "additionalProperties": false
}`),
		OutputType: "object",
	}
}

func (t timeTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	zone, _ := args["time_zone"].(string)
	if zone == "" {
		zone = "Europe/Moscow"
	}

	q := url.Values{}
	q.Set("timeZone", zone)
	u := t.baseURL + "/api/Time/current/zone?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errmodel.Network("request_build", "building time request failed", nil, err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, t.lookupError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, t.lookupError(fmt.Errorf("time service returned status %d", resp.StatusCode))
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errmodel.Network("bad_payload", "decoding time response failed", nil, err)
	}
	if dt, ok := result["dateTime"].(string); ok {
		result["summary"] = fmt.Sprintf("Current time in %s: %s", zone, dt)
	}
	return result, nil
}

func (t timeTool) lookupError(cause error) error {
	hint := strings.Join(commonTimezones[:5], ", ")
	return errmodel.Network("unreachable",
		fmt.Sprintf("fetching time data failed: %v. Try one of these common time zones: %s", cause, hint),
		nil, cause)
}
