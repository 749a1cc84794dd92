package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/surveyreport-backend/internal/http"
	httpH "github.com/yungbote/surveyreport-backend/internal/http/handlers"
)

const shutdownTimeout = 15 * time.Second

// RunHTTP serves the report API until ctx is canceled.
func (a *App) RunHTTP(ctx context.Context) error {
	if a == nil || a.Services.Reports == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Wiring handlers...")
	server := http.NewServer(http.RouterConfig{
		Log:           a.Log,
		ServiceName:   a.Cfg.ServiceName,
		CORSOrigins:   a.Cfg.CORSOrigins,
		Metrics:       a.Metrics,
		ServeMetrics:  a.Metrics != nil && a.Cfg.MetricsAddr == "",
		ReportHandler: httpH.NewReportHandler(a.Services.Reports),
		HealthHandler: httpH.NewHealthHandler(a.ping),
	})
	return server.Run(ctx, a.Cfg.HTTPAddr, shutdownTimeout)
}

func (a *App) ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
