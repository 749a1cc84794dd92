package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/surveyreport-backend/internal/observability"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

// Access logs each request at a level that follows its status class and
// records request metrics when m is non-nil. Either argument may be nil.
func Access(log *logger.Logger, m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if m != nil {
			m.APIInflightInc()
			defer m.APIInflightDec()
		}

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if m != nil {
			metricRoute := route
			if metricRoute == "" {
				metricRoute = "unknown"
			}
			m.ObserveAPI(c.Request.Method, metricRoute, strconv.Itoa(status), elapsed)
		}
		if log == nil {
			return
		}
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}
		reqLog := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			reqLog.Error("HTTP request", fields...)
		case status >= 400:
			reqLog.Warn("HTTP request", fields...)
		default:
			reqLog.Debug("HTTP request", fields...)
		}
	}
}
