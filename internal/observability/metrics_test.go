package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveReportStage("render", "ok", time.Second)
	m.IncReportOutcome("completed")
	m.IncConflict("op")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", rec.Code)
	}
}

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("POST", "/api/reports", "202", 30*time.Millisecond)
	m.ObserveAPI("POST", "/api/reports", "202", 70*time.Millisecond)
	m.ObserveReportStage("render", "ok", 2*time.Second)
	m.IncReportOutcome("completed")
	m.IncRetry("Survey.CompanyAverage.RecordScores")

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`surveyreport_api_requests_total{method="POST",route="/api/reports",status="202"} 2`,
		`surveyreport_report_stage_duration_seconds_count{stage="render",status="ok"} 1`,
		`surveyreport_reports_processed_total{status="completed"} 1`,
		`surveyreport_aggregate_retries_total{operation="Survey.CompanyAverage.RecordScores"} 1`,
		`# TYPE surveyreport_api_inflight_requests gauge`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := NewHistogramVec("h", "help", []string{"k"}, []float64{1, 5})
	h.Observe(0.5, "a")
	h.Observe(3, "a")
	h.Observe(10, "a")
	var buf bytes.Buffer
	if err := h.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	for _, want := range []string{
		`h_bucket{k="a",le="1"} 1`,
		`h_bucket{k="a",le="5"} 2`,
		`h_bucket{k="a",le="+Inf"} 3`,
		`h_count{k="a"} 3`,
	} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, buf.String())
		}
	}
	if got := h.Count("a"); got != 3 {
		t.Fatalf("Count: want=3 got=%d", got)
	}
}

type fakeStatusCounter struct {
	counts map[string]int64
	err    error
}

func (f fakeStatusCounter) CountByStatus(dbctx.Context) (map[string]int64, error) {
	return f.counts, f.err
}

func TestCollectQueueDepth(t *testing.T) {
	m := NewMetrics()
	err := m.CollectQueueDepth(context.Background(), fakeStatusCounter{counts: map[string]int64{"pending": 3, "error": 1}})
	if err != nil {
		t.Fatalf("CollectQueueDepth: %v", err)
	}
	if got := m.queueDepth.Value("pending"); got != 3 {
		t.Fatalf("pending: want=3 got=%v", got)
	}
	if got := m.queueDepth.Value("processing"); got != 0 {
		t.Fatalf("processing: want=0 got=%v", got)
	}
	boom := errors.New("boom")
	if err := m.CollectQueueDepth(context.Background(), fakeStatusCounter{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("want boom got=%v", err)
	}
}
