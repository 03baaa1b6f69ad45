package config

import (
	"testing"
	"time"
)

func TestParseDefaultsAndEnv(t *testing.T) {
	t.Setenv("TRIP_WEATHER_KEY", "secret")

	cfg, err := Parse([]byte(`
weather:
  api_key: ${TRIP_WEATHER_KEY}
providers:
  search:
    rpm: 10
orchestrator:
  deadline: 30s
  tasks:
    risk:
      min: 2s
      max: 20s
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Weather.APIKey != "secret" {
		t.Errorf("env not expanded: %q", cfg.Weather.APIKey)
	}
	if got := cfg.Providers[ProviderSearch]; got.RPM != 10 || got.Burst != 30 {
		t.Errorf("search provider = %+v, want rpm 10 with default burst", got)
	}
	if cfg.Providers[ProviderTranslate].Timeout != 10*time.Second {
		t.Errorf("translate default timeout missing")
	}
	if cfg.Orchestrator.Deadline != 30*time.Second {
		t.Errorf("deadline = %s", cfg.Orchestrator.Deadline)
	}
	if cfg.Orchestrator.Tasks["risk"].Max != 20*time.Second {
		t.Errorf("task max = %s", cfg.Orchestrator.Tasks["risk"].Max)
	}
	if cfg.Price.WindowDays != 3 || cfg.Crowd.MaxDays != 7 {
		t.Errorf("price/crowd defaults = %d/%d", cfg.Price.WindowDays, cfg.Crowd.MaxDays)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown search provider", "search:\n  provider: bing\n"},
		{"unknown gateway provider", "providers:\n  flights:\n    rpm: 1\n"},
		{"min above max", "orchestrator:\n  tasks:\n    price:\n      min: 10s\n      max: 1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Errorf("Parse() expected error")
			}
		})
	}
}
