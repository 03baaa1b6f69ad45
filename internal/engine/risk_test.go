package engine

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iWorld-y/trip_radar/internal/model"
	"github.com/iWorld-y/trip_radar/internal/scrape"
	"github.com/iWorld-y/trip_radar/internal/search"
	"github.com/iWorld-y/trip_radar/internal/weather"
)

const mitigationJSON = `{"summary":"Typhoon season risk","mitigation":["Monitor JMA typhoon warnings","Keep a flexible itinerary"]}`

func calmForecast(start, end time.Time) (*weather.Forecast, error) {
	return &weather.Forecast{
		Location: "Tokyo",
		InRange:  true,
		Days:     []weather.DayCondition{{Date: start, ConditionID: 801, Description: "few clouds", WindSpeed: 3}},
	}, nil
}

func searchByTopic(safety, health string) func(string, int) (*search.Response, error) {
	return func(q string, n int) (*search.Response, error) {
		if strings.Contains(q, "health") {
			return results(health), nil
		}
		return results(safety), nil
	}
}

func TestRiskTyphoonScenario(t *testing.T) {
	start, end := day(2025, 6, 1), day(2025, 6, 10)
	src := &fakeSources{
		weather: func(loc string, s, e time.Time) (*weather.Forecast, error) {
			return &weather.Forecast{
				Location: loc,
				InRange:  true,
				Days:     []weather.DayCondition{{Date: s, ConditionID: 502, Description: "heavy rain", WindSpeed: 12}},
				Alerts:   []string{"2025-06-03: severe storm (typhoon)"},
			}, nil
		},
		search: searchByTopic("Tokyo is a welcoming city for tourists.", "No special entry requirements for visitors."),
	}
	e := NewRiskEngine(src, fakeInvoker{"Travel Risk Assessment Specialist": mitigationJSON})

	res := e.Analyze(context.Background(), tripTask(model.AnalysisRisk, "Tokyo", start, end, ""))
	if res.Status != model.StatusSuccess {
		t.Fatalf("Status = %s (%s)", res.Status, res.Reason)
	}
	report, ok := res.Risk()
	if !ok {
		t.Fatalf("payload = %T", res.Payload)
	}
	if report.Overall != model.RiskHigh {
		t.Errorf("Overall = %s, want HIGH", report.Overall)
	}
	for cat, want := range map[model.RiskCategory]model.RiskLevel{
		model.RiskWeather: model.RiskHigh,
		model.RiskSafety:  model.RiskLow,
		model.RiskHealth:  model.RiskLow,
	} {
		got, _ := report.Category(cat)
		if got.Level != want {
			t.Errorf("%s = %s, want %s", cat, got.Level, want)
		}
	}
	if len(report.EmergencyContacts) == 0 || !strings.Contains(report.EmergencyContacts[0], "110") {
		t.Errorf("EmergencyContacts = %v", report.EmergencyContacts)
	}
	if len(report.Mitigation) != 2 {
		t.Errorf("Mitigation = %v", report.Mitigation)
	}
}

func TestRiskOverallIsMaximum(t *testing.T) {
	start, end := day(2025, 4, 1), day(2025, 4, 5)
	src := &fakeSources{
		weather: func(_ string, s, e time.Time) (*weather.Forecast, error) { return calmForecast(s, e) },
		search: searchByTopic(
			"Official advisory: do not travel to the border region.",
			"Routine precautions only.",
		),
	}
	e := NewRiskEngine(src, fakeInvoker{"Travel Risk Assessment Specialist": mitigationJSON})

	res := e.Analyze(context.Background(), tripTask(model.AnalysisRisk, "Tokyo", start, end, ""))
	report, _ := res.Risk()
	weatherCat, _ := report.Category(model.RiskWeather)
	safetyCat, _ := report.Category(model.RiskSafety)
	healthCat, _ := report.Category(model.RiskHealth)
	if weatherCat.Level != model.RiskLow || safetyCat.Level != model.RiskHigh || healthCat.Level != model.RiskLow {
		t.Fatalf("categories = %s/%s/%s", weatherCat.Level, safetyCat.Level, healthCat.Level)
	}
	if report.Overall != model.RiskHigh {
		t.Errorf("Overall = %s, want HIGH", report.Overall)
	}
}

func TestRiskPartialFailure(t *testing.T) {
	start, end := day(2025, 4, 1), day(2025, 4, 5)
	src := &fakeSources{
		search: searchByTopic("Exercise caution and heed every warning.", "Routine precautions only."),
	}
	e := NewRiskEngine(src, fakeInvoker{"Travel Risk Assessment Specialist": mitigationJSON})

	res := e.Analyze(context.Background(), tripTask(model.AnalysisRisk, "Tokyo", start, end, ""))
	if res.Status != model.StatusDegraded {
		t.Fatalf("Status = %s, want degraded", res.Status)
	}
	if len(res.Missing) != 1 || res.Missing[0] != "weather" {
		t.Errorf("Missing = %v", res.Missing)
	}
	if res.Kind != model.KindUnavailable {
		t.Errorf("Kind = %s", res.Kind)
	}
	report, _ := res.Risk()
	w, _ := report.Category(model.RiskWeather)
	if w.Available {
		t.Error("weather category should be flagged unavailable")
	}
	if report.Overall != model.RiskMedium {
		t.Errorf("Overall = %s, want MEDIUM from safety", report.Overall)
	}
}

func TestRiskAllSourcesFailed(t *testing.T) {
	e := NewRiskEngine(&fakeSources{}, fakeInvoker{})
	res := e.Analyze(context.Background(), tripTask(model.AnalysisRisk, "Tokyo", day(2025, 4, 1), day(2025, 4, 2), ""))
	if res.Status != model.StatusFailed || res.Kind != model.KindAllSourcesFailed {
		t.Errorf("got %s/%s, want failed/all_sources_failed", res.Status, res.Kind)
	}
	if res.Payload != nil {
		t.Error("failed result must not carry a fabricated payload")
	}
}

func TestRiskReasoningUnavailable(t *testing.T) {
	start, end := day(2025, 4, 1), day(2025, 4, 5)
	src := &fakeSources{
		weather: func(_ string, s, e time.Time) (*weather.Forecast, error) { return calmForecast(s, e) },
		search:  searchByTopic("Pleasant city.", "Routine precautions only."),
	}
	res := NewRiskEngine(src, fakeInvoker{}).Analyze(context.Background(), tripTask(model.AnalysisRisk, "Tokyo", start, end, ""))
	if res.Status != model.StatusDegraded || res.Kind != model.KindReasoningUnavailable {
		t.Fatalf("got %s/%s", res.Status, res.Kind)
	}
	report, _ := res.Risk()
	if len(report.Mitigation) == 0 {
		t.Error("rule-based mitigation expected when reasoning is unavailable")
	}
}

func TestRiskEnrichesShortSnippets(t *testing.T) {
	var scraped atomic.Int32
	src := &fakeSources{
		weather: func(_ string, s, e time.Time) (*weather.Forecast, error) { return calmForecast(s, e) },
		search: func(q string, n int) (*search.Response, error) {
			return &search.Response{Results: []search.Result{{Title: "Advisory", URL: "https://example.com/a", Content: "short"}}}, nil
		},
	}
	src.scrape = func(url string) (*scrape.Page, error) {
		scraped.Add(1)
		return &scrape.Page{URL: url, Text: "Reconsider travel due to civil unrest in the capital."}, nil
	}
	res := NewRiskEngine(src, fakeInvoker{}).Analyze(context.Background(), tripTask(model.AnalysisRisk, "Tokyo", day(2025, 4, 1), day(2025, 4, 2), ""))
	report, _ := res.Risk()
	safety, _ := report.Category(model.RiskSafety)
	if safety.Level != model.RiskHigh {
		t.Errorf("safety = %s, want HIGH from scraped page", safety.Level)
	}
	if scraped.Load() == 0 {
		t.Error("expected short snippet to be enriched by scraping")
	}
}

func TestScoreSafetyThresholds(t *testing.T) {
	tests := []struct {
		text string
		want model.RiskLevel
	}{
		{"nothing notable", model.RiskLow},
		{"a travel advisory", model.RiskLow},
		{"advisory: exercise caution", model.RiskMedium},
		{"warning advisory danger unsafe", model.RiskHigh},
		{"Level 4: Do Not Travel", model.RiskHigh},
	}
	for _, tt := range tests {
		if got := scoreSafety(tt.text).Level; got != tt.want {
			t.Errorf("scoreSafety(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestScoreWeather(t *testing.T) {
	d := day(2025, 1, 10)
	tests := []struct {
		name string
		cond weather.DayCondition
		want model.RiskLevel
	}{
		{"thunderstorm", weather.DayCondition{Date: d, ConditionID: 211}, model.RiskHigh},
		{"snow", weather.DayCondition{Date: d, ConditionID: 601}, model.RiskMedium},
		{"rain", weather.DayCondition{Date: d, ConditionID: 500}, model.RiskLow},
		{"gale", weather.DayCondition{Date: d, ConditionID: 800, WindSpeed: 18}, model.RiskMedium},
		{"storm wind", weather.DayCondition{Date: d, ConditionID: 800, WindSpeed: 26}, model.RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &weather.Forecast{InRange: true, Days: []weather.DayCondition{tt.cond}}
			if got := scoreWeather(f).Level; got != tt.want {
				t.Errorf("scoreWeather() = %s, want %s", got, tt.want)
			}
		})
	}
}
