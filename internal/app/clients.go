package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/surveyreport-backend/internal/clients/chartrender"
	"github.com/yungbote/surveyreport-backend/internal/clients/redis"
	"github.com/yungbote/surveyreport-backend/internal/platform/gcp"
	"github.com/yungbote/surveyreport-backend/internal/platform/keylock"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
	"github.com/yungbote/surveyreport-backend/internal/reportpdf"
	"github.com/yungbote/surveyreport-backend/internal/services"
)

type Clients struct {
	Bucket      gcp.BucketService
	Charts      services.ChartSource
	CompanyLock keylock.Locker
	lease       *redis.LeaseLocker
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := resolveBucketService(log, cfg.Storage)
	if err != nil {
		return Clients{}, err
	}

	charts, err := newChartSource(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// The in-process mutex always runs first so local contention never
	// reaches redis.
	var lease *redis.LeaseLocker
	locker := keylock.Locker(keylock.NewKeyedMutex())
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		lease, err = redis.NewLeaseLocker(log, redis.LeaseConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.LockTTL,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis company lock: %w", err)
		}
		locker = keylock.Chain(locker, lease)
	}

	return Clients{
		Bucket:      bucket,
		Charts:      charts,
		CompanyLock: locker,
		lease:       lease,
	}, nil
}

func newChartSource(log *logger.Logger, cfg Config) (services.ChartSource, error) {
	switch cfg.ChartRenderMode {
	case ChartRenderRemote:
		if strings.TrimSpace(cfg.ChartBaseURL) == "" {
			return nil, fmt.Errorf("missing CHART_BASE_URL for CHART_RENDER_MODE=remote")
		}
		renderer, err := chartrender.New(log, cfg.ChartRender)
		if err != nil {
			return nil, fmt.Errorf("init chart renderer: %w", err)
		}
		return services.NewRemoteChartSource(renderer, cfg.ChartBaseURL, cfg.ChartViewport, cfg.ChartSettle), nil
	case ChartRenderLocal, "":
		chart, err := reportpdf.NewGGBarChart(cfg.ChartViewport.Width, cfg.ChartViewport.Height)
		if err != nil {
			return nil, fmt.Errorf("init local chart: %w", err)
		}
		return services.NewLocalChartSource(chart), nil
	default:
		return nil, fmt.Errorf("unsupported CHART_RENDER_MODE %q", cfg.ChartRenderMode)
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.lease != nil {
		_ = c.lease.Close()
	}
}
