package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics_Shared(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	if a == nil {
		t.Fatal("NewMetrics() returned nil")
	}
	if a != b {
		t.Error("NewMetrics() should return the shared instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics()
	before := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/standards", "200"))

	m.RecordHTTPRequest("GET", "/api/standards", 200, 15*time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/standards", "200")); got != before+1 {
		t.Errorf("requests = %v, want %v", got, before+1)
	}
}

func TestRecordDatasetLoad(t *testing.T) {
	m := NewMetrics()
	loads := testutil.ToFloat64(m.DatasetLoads)

	m.RecordDatasetLoad(3, 7, 11, 1)

	if got := testutil.ToFloat64(m.DatasetLoads); got != loads+1 {
		t.Errorf("loads = %v, want %v", got, loads+1)
	}
	tests := []struct {
		kind string
		want float64
	}{
		{"standards", 3},
		{"lessons", 7},
		{"items", 11},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(m.DatasetRecords.WithLabelValues(tt.kind)); got != tt.want {
			t.Errorf("records{%s} = %v, want %v", tt.kind, got, tt.want)
		}
	}
	if got := testutil.ToFloat64(m.DatasetDiagnostics); got != 1 {
		t.Errorf("diagnostics = %v, want 1", got)
	}
}

func TestRecordEnrichment(t *testing.T) {
	m := NewMetrics()
	before := testutil.ToFloat64(m.EnrichmentOutcomes.WithLabelValues("failed"))

	m.RecordEnrichment("failed", time.Second)

	if got := testutil.ToFloat64(m.EnrichmentOutcomes.WithLabelValues("failed")); got != before+1 {
		t.Errorf("failed outcomes = %v, want %v", got, before+1)
	}
}

func TestRecordGrade(t *testing.T) {
	m := NewMetrics()
	fails := testutil.ToFloat64(m.GradingVerdicts.WithLabelValues("fail"))
	clarity := testutil.ToFloat64(m.GradingFailures.WithLabelValues("clear_solution"))

	m.RecordGrade(false, []string{"clear_solution"})
	m.RecordGrade(true, nil)

	if got := testutil.ToFloat64(m.GradingVerdicts.WithLabelValues("fail")); got != fails+1 {
		t.Errorf("fail verdicts = %v, want %v", got, fails+1)
	}
	if got := testutil.ToFloat64(m.GradingFailures.WithLabelValues("clear_solution")); got != clarity+1 {
		t.Errorf("clear_solution failures = %v, want %v", got, clarity+1)
	}
}

func TestRecordTokens_IgnoresZero(t *testing.T) {
	m := NewMetrics()
	before := testutil.ToFloat64(m.AITokens.WithLabelValues("mock", "m"))

	m.RecordTokens("mock", "m", 0)
	m.RecordTokens("mock", "m", 25)

	if got := testutil.ToFloat64(m.AITokens.WithLabelValues("mock", "m")); got != before+25 {
		t.Errorf("tokens = %v, want %v", got, before+25)
	}
}
