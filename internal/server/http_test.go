package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/trip_radar/internal/config"
	"github.com/iWorld-y/trip_radar/internal/metrics"
	"github.com/iWorld-y/trip_radar/internal/model"
)

type fakeProducer struct {
	got      model.TripRequest
	deadline time.Duration
	err      error
	panics   bool
}

func (f *fakeProducer) ProduceReport(ctx context.Context, req model.TripRequest, deadline time.Duration) (*model.IntelligenceReport, error) {
	if f.panics {
		panic("boom")
	}
	f.got, f.deadline = req, deadline
	if f.err != nil {
		return nil, f.err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	results := map[model.AnalysisType]*model.AnalysisResult{
		model.AnalysisRisk: model.Success(&model.RiskReport{Destination: req.Destination, Overall: model.RiskLow}, []string{"weather"}),
	}
	return &model.IntelligenceReport{
		ID:          "r-1",
		Request:     req,
		Results:     results,
		Manifest:    model.BuildManifest(results, "not requested"),
		StartedAt:   time.Now(),
		CompletedAt: time.Now(),
	}, nil
}

func newTestServer(p Producer) http.Handler {
	return NewHTTPServer(config.ServerConfig{}, p, metrics.New(), log.NewStdLogger(io.Discard))
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"origin":"New York","destination":"Tokyo","start_date":"2025-06-01","end_date":"2025-06-05","analyses":["risk"],"deadline":"20s"}`

func TestIntelligence(t *testing.T) {
	p := &fakeProducer{}
	rec := post(t, newTestServer(p), "/api/v1/intelligence", validBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.True(t, p.got.Intelligence, "intelligence defaults to true")
	assert.Equal(t, []model.AnalysisType{model.AnalysisRisk}, p.got.Analyses)
	assert.Equal(t, 20*time.Second, p.deadline)

	var report struct {
		ID       string                `json:"id"`
		Manifest []model.ManifestEntry `json:"manifest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "r-1", report.ID)
	require.Len(t, report.Manifest, 4)
	assert.Equal(t, model.StatusSuccess, report.Manifest[0].Status)
	assert.Equal(t, model.StatusSkipped, report.Manifest[1].Status)
}

func TestIntelligenceHTML(t *testing.T) {
	rec := post(t, newTestServer(&fakeProducer{}), "/api/v1/intelligence?format=html", validBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "旅行情报雷达")
}

func TestIntelligenceBadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"origin":`},
		{"bad date", `{"origin":"A","destination":"B","start_date":"June 1","end_date":"2025-06-05"}`},
		{"unknown analysis", `{"origin":"A","destination":"B","start_date":"2025-06-01","end_date":"2025-06-05","analyses":["visa"]}`},
		{"reversed dates", `{"origin":"A","destination":"B","start_date":"2025-06-09","end_date":"2025-06-05"}`},
		{"missing origin", `{"destination":"B","start_date":"2025-06-01","end_date":"2025-06-05"}`},
		{"bad deadline", `{"origin":"A","destination":"B","start_date":"2025-06-01","end_date":"2025-06-05","deadline":"soon"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, newTestServer(&fakeProducer{}), "/api/v1/intelligence", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestIntelligenceInternalError(t *testing.T) {
	rec := post(t, newTestServer(&fakeProducer{err: fmt.Errorf("boom")}), "/api/v1/intelligence", validBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = post(t, newTestServer(&fakeProducer{panics: true}), "/api/v1/intelligence", validBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(&fakeProducer{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
