package basic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
)

func invoke(t *testing.T, tool agent.Tool, args map[string]any) map[string]any {
	t.Helper()
	out, err := agent.SafeInvoke(context.Background(), tool, args, agent.JSONSchemaValidator)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func toolByName(t *testing.T, p *Provider, name string) agent.Tool {
	t.Helper()
	for _, tool := range p.Tools() {
		if tool.Describe().Name == name {
			return tool
		}
	}
	t.Fatalf("tool %q not found", name)
	return nil
}

func TestNewProviderRequiresKeys(t *testing.T) {
	if _, err := NewProvider("", "wkey", Options{}); !errmodel.IsCategory(err, errmodel.CategoryConfig) {
		t.Fatalf("want config error, got %v", err)
	}
	if _, err := NewProvider("ckey", "", Options{}); !errmodel.IsCategory(err, errmodel.CategoryConfig) {
		t.Fatalf("want config error, got %v", err)
	}
	p, err := NewProvider("ckey", "wkey", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Tools()) != 3 {
		t.Fatalf("tools=%d", len(p.Tools()))
	}
}

func TestCurrencyConverter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v6/ckey/pair/USD/EUR/120" {
			t.Errorf("path=%s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result":            "success",
			"conversion_rate":   0.85,
			"conversion_result": 102.0,
		})
	}))
	defer srv.Close()

	p, err := NewProvider("ckey", "wkey", Options{CurrencyBaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	out := invoke(t, toolByName(t, p, "currency_converter"), map[string]any{
		"base_currency": "usd", "target_currency": "eur", "amount": 120.0,
	})
	if out["conversion_rate"] != 0.85 || out["conversion_result"] != 102.0 {
		t.Fatalf("out=%v", out)
	}
}

func TestCurrencyConverterError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": "error", "error-type": "invalid-key"})
	}))
	defer srv.Close()

	p, _ := NewProvider("bad", "wkey", Options{CurrencyBaseURL: srv.URL})
	_, err := toolByName(t, p, "currency_converter").Invoke(context.Background(), map[string]any{
		"base_currency": "USD", "target_currency": "EUR",
	})
	if !errmodel.IsCategory(err, errmodel.CategoryNetwork) {
		t.Fatalf("want network error, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid-key") {
		t.Fatalf("err=%v", err)
	}
}

func weatherServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/geo/1.0/direct", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Nowhere" {
			_, _ = w.Write([]byte("[]"))
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"lat": 51.51, "lon": -0.13}})
	})
	mux.HandleFunc("/data/2.5/weather", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "" {
			t.Error("lat missing")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"main":    map[string]any{"temp": 14.2},
			"weather": []map[string]any{{"description": "light rain"}},
		})
	})
	mux.HandleFunc("/data/2.5/forecast", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("cnt"); got != "40" {
			t.Errorf("cnt=%q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"list": []map[string]any{{"dt": 1}, {"dt": 2}},
		})
	})
	return httptest.NewServer(mux)
}

func TestWeatherTool(t *testing.T) {
	srv := weatherServer(t)
	defer srv.Close()

	p, err := NewProvider("ckey", "wkey", Options{WeatherBaseURL: srv.URL, GeoBaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	out := invoke(t, toolByName(t, p, "weather_tool"), map[string]any{"city": "London"})
	if got := out["summary"].(string); !strings.Contains(got, "light rain") || !strings.Contains(got, "°C") {
		t.Fatalf("summary=%q", got)
	}
}

func TestWeatherToolForecastClampsTimestamps(t *testing.T) {
	srv := weatherServer(t)
	defer srv.Close()

	p, _ := NewProvider("ckey", "wkey", Options{WeatherBaseURL: srv.URL, GeoBaseURL: srv.URL})
	out := invoke(t, toolByName(t, p, "weather_tool"), map[string]any{
		"city": "London", "forecast": true, "forecast_timestamps": 99.0,
	})
	if got := out["summary"].(string); !strings.Contains(got, "2 timestamps") {
		t.Fatalf("summary=%q", got)
	}
}

func TestWeatherToolUnknownCity(t *testing.T) {
	srv := weatherServer(t)
	defer srv.Close()

	p, _ := NewProvider("ckey", "wkey", Options{WeatherBaseURL: srv.URL, GeoBaseURL: srv.URL})
	_, err := toolByName(t, p, "weather_tool").Invoke(context.Background(), map[string]any{"city": "Nowhere"})
	ce := errmodel.From(err)
	if ce == nil || ce.Code != "city_not_found" {
		t.Fatalf("want city_not_found, got %v", err)
	}
}

func TestTimeTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("timeZone"); got != "Asia/Tokyo" {
			t.Errorf("timeZone=%q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"dateTime": "2026-08-25T21:00:00",
			"timeZone": "Asia/Tokyo",
		})
	}))
	defer srv.Close()

	p, _ := NewProvider("ckey", "wkey", Options{TimeBaseURL: srv.URL})
	out := invoke(t, toolByName(t, p, "time_tool"), map[string]any{"time_zone": "Asia/Tokyo"})
	if got := out["summary"].(string); !strings.Contains(got, "Asia/Tokyo") {
		t.Fatalf("summary=%q", got)
	}
}

func TestTimeToolErrorSuggestsZones(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p, _ := NewProvider("ckey", "wkey", Options{TimeBaseURL: srv.URL})
	_, err := toolByName(t, p, "time_tool").Invoke(context.Background(), map[string]any{"time_zone": "Not/AZone"})
	if !errmodel.IsCategory(err, errmodel.CategoryNetwork) {
		t.Fatalf("want network error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Europe/Moscow") {
		t.Fatalf("err=%v", err)
	}
}
