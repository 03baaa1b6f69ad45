package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func forecastItem(at time.Time, id int, desc string, wind float64) string {
	return fmt.Sprintf(`{"dt":%d,"main":{"temp_min":20,"temp_max":25},"weather":[{"id":%d,"main":"x","description":%q}],"wind":{"speed":%.1f}}`,
		at.Unix(), id, desc, wind)
}

func TestClientForecast(t *testing.T) {
	d1 := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	items := []string{
		forecastItem(d1, 800, "clear sky", 3),
		forecastItem(d1.Add(6*time.Hour), 500, "light rain", 4),
		forecastItem(d2, 781, "tornado", 30),
	}
	body := `{"list":[` + strings.Join(items, ",") + `],"city":{"name":"Tokyo","country":"JP","timezone":0}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("appid") != "key" || r.URL.Query().Get("q") != "Tokyo" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, time.Second)
	f, err := c.Forecast(context.Background(), "Tokyo", d1, d2)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if !f.InRange || len(f.Days) != 2 {
		t.Fatalf("Days = %+v", f.Days)
	}
	if f.Days[0].ConditionID != 500 {
		t.Errorf("day one should keep the rain condition, got %d", f.Days[0].ConditionID)
	}
	if f.Days[0].WindSpeed != 4 {
		t.Errorf("day one wind = %.1f", f.Days[0].WindSpeed)
	}
	if len(f.Alerts) != 1 || !strings.Contains(f.Alerts[0], "tornado") {
		t.Errorf("Alerts = %v", f.Alerts)
	}
	worst, _ := f.Worst()
	if worst.ConditionID != 781 {
		t.Errorf("Worst() = %d", worst.ConditionID)
	}
}

func TestClientForecastOutOfRange(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	body := `{"list":[` + forecastItem(now, 800, "clear sky", 2) + `],"city":{"name":"Paris","country":"FR","timezone":0}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f, err := NewClient("key", srv.URL, time.Second).Forecast(context.Background(), "Paris",
		now.AddDate(0, 2, 0), now.AddDate(0, 2, 5))
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if f.InRange {
		t.Error("expected InRange false for a trip beyond the forecast horizon")
	}
	if len(f.Days) != 1 {
		t.Errorf("expected nearest forecast days, got %d", len(f.Days))
	}
}

func TestKindOf(t *testing.T) {
	tests := map[int]Kind{
		211: KindThunderstorm,
		301: KindRain,
		502: KindRain,
		601: KindSnow,
		741: KindAtmosphere,
		800: KindClear,
		803: KindClouds,
		0:   KindUnknown,
	}
	for id, want := range tests {
		if got := KindOf(id); got != want {
			t.Errorf("KindOf(%d) = %s, want %s", id, got, want)
		}
	}
}
