package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

func TestAccessLogsWithRequestIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core), logger.Options{})

	r := gin.New()
	r.Use(RequestContext(), Access(log, nil))
	r.GET("/api/reports/:id", func(c *gin.Context) {
		_ = c.Error(errors.New("report not found"))
		c.Status(http.StatusNotFound)
	})
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/api/reports/abc", nil)
	req.Header.Set(HeaderRequestID, "req-7")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries: want=2 got=%d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("404 level: want=warn got=%s", entries[0].Level)
	}
	f := entries[0].ContextMap()
	if f["request_id"] != "req-7" || f["report_id"] != "abc" || f["route"] != "/api/reports/:id" {
		t.Fatalf("fields: got=%v", f)
	}
	if _, ok := f["errors"]; !ok {
		t.Fatalf("gin errors not logged: %v", f)
	}
	if entries[1].Level != zapcore.DebugLevel {
		t.Fatalf("200 level: want=debug got=%s", entries[1].Level)
	}
	if rec.Header().Get(HeaderTraceID) == "" {
		t.Fatalf("trace id header missing")
	}
}
