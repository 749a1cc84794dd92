package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/surveyreport-backend/internal/http/handlers"
	httpMW "github.com/yungbote/surveyreport-backend/internal/http/middleware"
	"github.com/yungbote/surveyreport-backend/internal/observability"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// Metrics is served on /metrics when ServeMetrics is set; request
	// instrumentation is active whenever Metrics is non-nil.
	Metrics      *observability.Metrics
	ServeMetrics bool

	ReportHandler *httpH.ReportHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestContext())
	r.Use(httpMW.Access(cfg.Log, cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.ServeMetrics && cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := r.Group("/api")
	{
		// Reports
		if cfg.ReportHandler != nil {
			api.POST("/reports", cfg.ReportHandler.CreateReport)
			api.GET("/reports/stats", cfg.ReportHandler.ReportStats)
			api.GET("/reports/:id", cfg.ReportHandler.GetReport)
			api.POST("/reports/:id/requeue", cfg.ReportHandler.RequeueReport)
			api.POST("/companies/:id/recompute-average", cfg.ReportHandler.RecomputeCompanyAverage)
		}
	}

	return r
}
