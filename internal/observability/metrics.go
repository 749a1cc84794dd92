package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/surveyreport-backend/internal/domain/survey"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	stageLatency *HistogramVec
	reportsDone  *CounterVec
	chartRenders *CounterVec
	aggregateOps *HistogramVec
	aggConflicts *CounterVec
	aggRetries   *CounterVec
	queueDepth   *GaugeVec

	collectors []collector
}

// NewMetrics builds an empty registry. A nil *Metrics is valid and records
// nothing.
func NewMetrics() *Metrics {
	m := &Metrics{
		apiRequests: NewCounterVec("surveyreport_api_requests_total", "HTTP requests served.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("surveyreport_api_request_duration_seconds", "HTTP request latency.", []string{"method", "route", "status"}, nil),
		apiInflight: NewGauge("surveyreport_api_inflight_requests", "HTTP requests in flight."),
		stageLatency: NewHistogramVec("surveyreport_report_stage_duration_seconds", "Report pipeline stage latency.", []string{"stage", "status"},
			[]float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60}),
		reportsDone:  NewCounterVec("surveyreport_reports_processed_total", "Reports that reached a terminal status.", []string{"status"}),
		chartRenders: NewCounterVec("surveyreport_chart_renders_total", "Chart images produced.", []string{"source", "status"}),
		aggregateOps: NewHistogramVec("surveyreport_aggregate_operation_duration_seconds", "Aggregate write latency.", []string{"operation", "status"}, nil),
		aggConflicts: NewCounterVec("surveyreport_aggregate_conflicts_total", "Aggregate writes that hit a conflict.", []string{"operation"}),
		aggRetries:   NewCounterVec("surveyreport_aggregate_retries_total", "Aggregate write retries.", []string{"operation"}),
		queueDepth:   NewGaugeVec("surveyreport_reports", "Reports by status.", []string{"status"}),
	}
	m.collectors = []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.stageLatency, m.reportsDone, m.chartRenders,
		m.aggregateOps, m.aggConflicts, m.aggRetries,
		m.queueDepth,
	}
	return m
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveReportStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.stageLatency.Observe(dur.Seconds(), stage, status)
}

func (m *Metrics) IncReportOutcome(status string) {
	if m == nil {
		return
	}
	m.reportsDone.Inc(status)
}

func (m *Metrics) IncChartRender(source, status string) {
	if m == nil {
		return
	}
	m.chartRenders.Inc(source, status)
}

// ObserveOperation, IncConflict and IncRetry let *Metrics serve as the
// aggregate write hooks.
func (m *Metrics) ObserveOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Observe(dur.Seconds(), name, status)
}

func (m *Metrics) IncConflict(name string) {
	if m == nil {
		return
	}
	m.aggConflicts.Inc(name)
}

func (m *Metrics) IncRetry(name string) {
	if m == nil {
		return
	}
	m.aggRetries.Inc(name)
}

// StatusCounter is the read the queue collector needs.
type StatusCounter interface {
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
}

// CollectQueueDepth refreshes the per-status report gauge once.
func (m *Metrics) CollectQueueDepth(ctx context.Context, reports StatusCounter) error {
	if m == nil || reports == nil {
		return nil
	}
	counts, err := reports.CountByStatus(dbctx.Context{Ctx: ctx})
	if err != nil {
		return err
	}
	for _, s := range []string{survey.ReportStatusPending, survey.ReportStatusProcessing, survey.ReportStatusCompleted, survey.ReportStatusError} {
		m.queueDepth.Set(float64(counts[s]), s)
	}
	return nil
}

// StartQueueCollector refreshes the report gauge every interval until ctx ends.
func (m *Metrics) StartQueueCollector(ctx context.Context, log *logger.Logger, reports StatusCounter, interval time.Duration) {
	if m == nil || reports == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.CollectQueueDepth(ctx, reports); err != nil && log != nil {
					log.Warn("metrics: report queue depth query failed", "error", err)
				}
			}
		}
	}()
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

// StartServer exposes /metrics on its own listener, for processes without
// the HTTP API.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

// StatusLabel turns an HTTP status code into a label value.
func StatusLabel(code int) string {
	if code <= 0 {
		return "0"
	}
	return strconv.Itoa(code)
}
