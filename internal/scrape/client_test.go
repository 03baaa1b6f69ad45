package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const page = `<html><head><title>Tokyo Travel Advisory</title></head><body>
<nav>menu</nav>
<article><h1>Tokyo Travel Advisory</h1>
<p>Travelers should exercise caution in crowded areas during the festival season. Pickpocketing has been reported near major stations.</p>
<p>Emergency services can be reached by dialing 110 for police and 119 for fire and ambulance services throughout Japan.</p>
<p>Check local news for typhoon warnings between August and October and follow the advice of local authorities.</p>
</article></body></html>`

func TestClientScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "trip-radar-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	p, err := NewClient("trip-radar-test", time.Second).Scrape(context.Background(), srv.URL+"/advisory")
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if !strings.Contains(p.Text, "exercise caution") {
		t.Errorf("Text = %q", p.Text)
	}
}

func TestClientScrapeInvalidURL(t *testing.T) {
	if _, err := NewClient("", time.Second).Scrape(context.Background(), "ftp://example.com"); err == nil {
		t.Error("expected error for non-http url")
	}
}
