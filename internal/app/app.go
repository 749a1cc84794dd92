package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/surveyreport-backend/internal/data/db"
	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	"github.com/yungbote/surveyreport-backend/internal/jobs/worker"
	"github.com/yungbote/surveyreport-backend/internal/observability"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Set
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Worker   *worker.Worker

	dbs          *db.DatabaseService
	shutdownOTel func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	dbs, err := db.NewDatabaseService(cfg.Database, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := dbs.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureReportIndexes(theDB); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("report indexes: %w", err)
	}

	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfigFromEnv(log, cfg.ServiceName, cfg.Environment))

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	reposet := repos.NewSet(theDB, log)

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	serviceset, err := wireServices(theDB, log, cfg, clients, reposet, metrics)
	if err != nil {
		clients.Close()
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		Worker:       worker.NewWorker(log, reposet.Reports, serviceset.Pipeline, cfg.Worker),
		dbs:          dbs,
		shutdownOTel: shutdownOTel,
	}, nil
}

// Start launches the background loops: the report worker pool and, when
// metrics are enabled, the queue depth collector and the standalone metrics
// listener.
func (a *App) Start(ctx context.Context, withWorker bool) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Metrics != nil {
		a.Metrics.StartQueueCollector(ctx, a.Log, a.Repos.Reports, a.Cfg.QueueScrapeEvery)
		if a.Cfg.MetricsAddr != "" {
			a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		}
	}
	if withWorker && a.Worker != nil {
		a.Worker.Start(ctx)
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Worker != nil {
		a.Worker.Wait()
	}
	a.Clients.Close()
	if a.shutdownOTel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.shutdownOTel(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.dbs != nil {
		if err := a.dbs.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
