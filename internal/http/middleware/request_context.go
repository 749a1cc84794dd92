package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/surveyreport-backend/internal/platform/ctxutil"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"
)

// RequestContext stores request and trace ids on the request context and
// echoes them as response headers. Installed after otelgin, the trace id is
// the server span's; otherwise the caller's X-Trace-Id or a fresh id.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		meta := ctxutil.RequestMeta{
			RequestID: headerOr(c, HeaderRequestID, uuid.NewString),
			TraceID:   spanTraceID(span),
		}
		if meta.TraceID == "" {
			meta.TraceID = headerOr(c, HeaderTraceID, uuid.NewString)
		}
		if id := c.Param("id"); id != "" && strings.HasPrefix(c.FullPath(), "/api/reports/") {
			meta.ReportID = id
		}
		span.SetAttributes(attribute.String("http.request_id", meta.RequestID))

		c.Request = c.Request.WithContext(ctxutil.WithRequestMeta(c.Request.Context(), meta))
		c.Header(HeaderTraceID, meta.TraceID)
		c.Header(HeaderRequestID, meta.RequestID)
		c.Next()
	}
}

func spanTraceID(span trace.Span) string {
	if sc := span.SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

func headerOr(c *gin.Context, name string, fallback func() string) string {
	if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
		return v
	}
	return fallback()
}
