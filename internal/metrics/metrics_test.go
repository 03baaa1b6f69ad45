package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.TaskTransition("risk", StateDispatched)
	m.ObserveTask("risk", "success", time.Second)
	m.GatewayOutcome("weather", OutcomeOK)
	m.UpstreamCall("weather")
	m.ReasoningCall("ok")
	m.ReportProduced()
	if m.Registry() != nil {
		t.Error("nil metrics should have nil registry")
	}
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.TaskTransition("risk", StateDispatched)
	m.TaskTransition("risk", StateDispatched)
	m.UpstreamCall("search")

	if got := testutil.ToFloat64(m.TaskTransitions("risk", StateDispatched)); got != 2 {
		t.Errorf("dispatched = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.UpstreamCalls("search")); got != 1 {
		t.Errorf("upstream calls = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "trip_radar_task_transitions_total") {
		t.Error("metrics endpoint missing task transitions")
	}
}
