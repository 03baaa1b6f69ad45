package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iWorld-y/trip_radar/internal/search"
	"github.com/iWorld-y/trip_radar/internal/upstream"
)

func TestClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q", got)
		}
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "Tokyo travel advisory" || req.MaxResults != 5 || req.Topic != "general" {
			t.Errorf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(SearchResponse{Results: []SearchResult{
			{Title: "Advisory", URL: "https://example.com/a", Content: "exercise caution"},
		}})
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL)
	resp, err := c.Search(context.Background(), &search.Request{Query: "Tokyo travel advisory"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Content != "exercise caution" {
		t.Errorf("Search() = %+v", resp.Results)
	}
}

func TestClientSearchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient("key", srv.URL).Search(context.Background(), &search.Request{Query: "q"})
	if !upstream.IsRateLimited(err) {
		t.Errorf("expected rate limited status error, got %v", err)
	}
}

func TestClientSearchSendsOnlyUsedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body) != 3 || body["topic"] != "news" || body["max_results"] != float64(1) {
			t.Errorf("unexpected body %v", body)
		}
		_ = json.NewEncoder(w).Encode(SearchResponse{Results: []SearchResult{
			{Title: "a", Content: "first"},
			{Title: "b", Content: "second"},
		}})
	}))
	defer srv.Close()

	resp, err := NewClient("key", srv.URL).Search(context.Background(), &search.Request{Query: "q", Topic: "news", MaxResults: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Text() != "a\nfirst" {
		t.Errorf("Search() = %+v", resp.Results)
	}
}
