package main

import (
	"errors"
	"testing"
	"time"

	"github.com/iWorld-y/trip_radar/internal/model"
)

func TestPlanOptionsRequest(t *testing.T) {
	base := planOptions{origin: " New York ", destination: "Tokyo", start: "2025-06-01", end: "2025-06-07"}

	req, err := base.request()
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if req.Origin != "New York" || !req.Intelligence {
		t.Errorf("request() = %+v", req)
	}
	if !req.EndDate.Equal(time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("EndDate = %s", req.EndDate)
	}

	subset := base
	subset.analyses = []string{"Risk", "price"}
	req, err = subset.request()
	if err != nil {
		t.Fatalf("request() error = %v", err)
	}
	if len(req.Analyses) != 2 || req.Analyses[0] != model.AnalysisRisk {
		t.Errorf("Analyses = %v", req.Analyses)
	}

	tests := []struct {
		name   string
		mutate func(*planOptions)
	}{
		{"bad date", func(o *planOptions) { o.start = "06/01/2025" }},
		{"reversed dates", func(o *planOptions) { o.start, o.end = o.end, o.start }},
		{"unknown analysis", func(o *planOptions) { o.analyses = []string{"visa"} }},
		{"empty destination", func(o *planOptions) { o.destination = "  " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base
			tt.mutate(&o)
			if _, err := o.request(); !errors.Is(err, model.ErrInvalidRequest) {
				t.Errorf("request() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestRootHasPlan(t *testing.T) {
	cmd, _, err := newRootCmd().Find([]string{"plan"})
	if err != nil || cmd.Name() != "plan" {
		t.Fatalf("plan command not registered: %v", err)
	}
	if cmd.Flags().Lookup("analyses") == nil {
		t.Error("missing --analyses flag")
	}
}
