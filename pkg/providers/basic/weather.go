package basic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
)

const (
	defaultWeatherBaseURL = "https://api.openweathermap.org"
	defaultGeoBaseURL     = "http://api.openweathermap.org"
)

type weatherTool struct {
	apiKey     string
	weatherURL string
	geoURL     string
	client     *http.Client
}

func newWeatherTool(apiKey, weatherURL, geoURL string, client *http.Client) weatherTool {
	if weatherURL == "" {
		weatherURL = defaultWeatherBaseURL
	}
	if geoURL == "" {
		geoURL = defaultGeoBaseURL
	}
	return weatherTool{
		apiKey:     apiKey,
		weatherURL: strings.TrimRight(weatherURL, "/"),
		geoURL:     strings.TrimRight(geoURL, "/"),
		client:     client,
	}
}

func (weatherTool) Describe() agent.ToolDescriptor {
	return agent.ToolDescriptor{
		Name:        "weather_tool",
		Description: "Fetches current weather data and a 5-day forecast for the given city.",
		InputSchema: []byte(`{
  "type": "object",
  "properties": {
    "city": {"type": "string", "description": "City name (for example 'London', 'New York')."},
    "units": {"type": "string", "description": "Measurement units: standard, metric or imperial. Defaults to metric."},
    "lang": {"type": "string", "description": "Language for weather descriptions. Defaults to 'en'."},
    "forecast": {"type": "boolean", "description": "When true, returns the 5-day/3-hour forecast instead of current weather."},
    "forecast_timestamps": {"type": "integer", "description": "Number of timestamps to return in the forecast (max 40, each covering a 3-hour interval)."}
  },
  "required": ["city"],
  "additionalProperties": false
}`),
		OutputType: "object",
	}
}

func (t weatherTool) geocode(ctx context.Context, city string) (lat, lon float64, err error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("limit", "1")
	q.Set("appid", t.apiKey)
	u := t.geoURL + "/geo/1.0/direct?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, errmodel.Network("request_build", "building geocoding request failed", nil, err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, 0, errmodel.Network("unreachable", "geocoding service unreachable", nil, err)
	}
	defer resp.Body.Close()

	var places []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return 0, 0, errmodel.Network("bad_payload", "decoding geocoding response failed", nil, err)
	}
	if len(places) == 0 {
		return 0, 0, errmodel.Validation("city_not_found",
			fmt.Sprintf("could not find coordinates for city %q", city), nil)
	}
	return places[0].Lat, places[0].Lon, nil
}

func (t weatherTool) fetch(ctx context.Context, path string, q url.Values) (map[string]any, error) {
	u := t.weatherURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errmodel.Network("request_build", "building weather request failed", nil, err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errmodel.Network("unreachable", "weather service unreachable", nil, err)
	}
	defer resp.Body.Close()

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errmodel.Network("bad_payload", "decoding weather response failed", nil, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := result["message"].(string)
		if msg == "" {
			msg = fmt.Sprintf("weather lookup failed with status %d", resp.StatusCode)
		}
		return nil, errmodel.Network("bad_status", msg, map[string]any{"status": resp.StatusCode}, nil)
	}
	return result, nil
}

func (t weatherTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	city, _ := args["city"].(string)
	units, _ := args["units"].(string)
	if units == "" {
		units = "metric"
	}
	lang, _ := args["lang"].(string)
	if lang == "" {
		lang = "en"
	}

	lat, lon, err := t.geocode(ctx, city)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", t.apiKey)
	q.Set("units", units)
	q.Set("lang", lang)

	if wantForecast, _ := args["forecast"].(bool); wantForecast {
		if ts, ok := args["forecast_timestamps"].(float64); ok && ts != 0 {
			cnt := int(ts)
			if cnt < 1 {
				cnt = 1
			}
			if cnt > 40 {
				cnt = 40
			}
			q.Set("cnt", strconv.Itoa(cnt))
		}
		result, err := t.fetch(ctx, "/data/2.5/forecast", q)
		if err != nil {
			return nil, err
		}
		count := 0
		if list, ok := result["list"].([]any); ok {
			count = len(list)
		}
		result["summary"] = fmt.Sprintf("5-day forecast for %s with %d timestamps at 3-hour intervals", city, count)
		return result, nil
	}

	result, err := t.fetch(ctx, "/data/2.5/weather", q)
	if err != nil {
		return nil, err
	}
	var temp any
	if m, ok := result["main"].(map[string]any); ok {
		temp = m["temp"]
	}
	desc := "Unknown"
	if ws, ok := result["weather"].([]any); ok && len(ws) > 0 {
		if w, ok := ws[0].(map[string]any); ok {
			if d, ok := w["description"].(string); ok {
				desc = d
			}
		}
	}
	unit := "K"
	switch units {
	case "metric":
		unit = "C"
	case "imperial":
		unit = "F"
	}
	result["summary"] = fmt.Sprintf("Current weather in %s: %s, temperature: %v°%s", city, desc, temp, unit)
	return result, nil
}
