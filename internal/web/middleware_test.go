package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/p-n-ai/curriculum-atlas/internal/metrics"
)

func TestRecoverer(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("dataset exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/structure", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"dataset exploded"}` {
		t.Errorf("body = %q", got)
	}
}

func TestRecoverer_HeaderAlreadyWritten(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want the already written 202", rec.Code)
	}
}

func TestInstrument_RecordsPanicsAs500(t *testing.T) {
	m := metrics.NewMetrics()
	counter := m.HTTPRequestsTotal.WithLabelValues("GET", "/boom", "500")
	before := testutil.ToFloat64(counter)

	h := recoverer(instrument(m, "GET /boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("500 counter = %v, want %v", got, before+1)
	}
}
