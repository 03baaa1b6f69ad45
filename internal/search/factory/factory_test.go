package factory

import (
	"testing"

	"github.com/iWorld-y/trip_radar/internal/config"
	"github.com/iWorld-y/trip_radar/internal/searxng"
	"github.com/iWorld-y/trip_radar/internal/tavily"
)

func TestNewSearcher(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SearchConfig
		want    string
		wantErr bool
	}{
		{"nothing configured", config.SearchConfig{}, "", true},
		{"tavily by key", config.SearchConfig{Tavily: config.TavilyConfig{APIKey: "k"}}, "tavily", false},
		{"searxng by url", config.SearchConfig{SearXNG: config.SearXNGConfig{BaseURL: "http://localhost:8888"}}, "searxng", false},
		{"explicit tavily without key", config.SearchConfig{Provider: "tavily"}, "", true},
		{"unknown", config.SearchConfig{Provider: "bing"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSearcher(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSearcher() error = %v, wantErr %v", err, tt.wantErr)
			}
			switch tt.want {
			case "tavily":
				if _, ok := s.(*tavily.Client); !ok {
					t.Errorf("got %T, want *tavily.Client", s)
				}
			case "searxng":
				if _, ok := s.(*searxng.Client); !ok {
					t.Errorf("got %T, want *searxng.Client", s)
				}
			}
		})
	}
}
