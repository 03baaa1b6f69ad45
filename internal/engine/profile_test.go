package engine

import (
	"testing"
	"time"
)

func TestLookupProfile(t *testing.T) {
	tests := []struct {
		dest    string
		code    string
		found   bool
		country string
	}{
		{"Tokyo", "ja", true, "Japan"},
		{"Kyoto, Japan", "ja", true, "Japan"},
		{"São Paulo", "pt", true, "Brazil"},
		{"New York City", "en", true, "United States"},
		{"Atlantis", "", false, ""},
		// 整词匹配，ukraine 不应命中 uk
		{"Ukraine", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			p, ok := LookupProfile(tt.dest)
			if ok != tt.found || p.LanguageCode != tt.code || p.Country != tt.country {
				t.Errorf("LookupProfile(%q) = %+v, %v", tt.dest, p, ok)
			}
		})
	}
}

func TestSeasonOf(t *testing.T) {
	july := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	north, _ := LookupProfile("Tokyo")
	south, _ := LookupProfile("Sydney")
	if got := north.SeasonOf(july); got != SeasonSummer {
		t.Errorf("Tokyo July = %s", got)
	}
	if got := south.SeasonOf(july); got != SeasonWinter {
		t.Errorf("Sydney July = %s", got)
	}
	if got := north.SeasonOf(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)); got != SeasonOther {
		t.Errorf("Tokyo April = %s", got)
	}
}

func TestEmergencyContactsFallback(t *testing.T) {
	if got := (Profile{}).EmergencyContacts(); len(got) == 0 {
		t.Error("unknown destination should still get generic emergency hints")
	}
}
