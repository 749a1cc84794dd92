package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/surveyreport-backend/internal/data/aggregates"
	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	domainagg "github.com/yungbote/surveyreport-backend/internal/domain/aggregates"
	"github.com/yungbote/surveyreport-backend/internal/observability"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
	"github.com/yungbote/surveyreport-backend/internal/reportpdf"
	"github.com/yungbote/surveyreport-backend/internal/scoring"
	"github.com/yungbote/surveyreport-backend/internal/services"
)

type Services struct {
	Average   domainagg.CompanyAverageAggregate
	Lifecycle domainagg.ReportLifecycleAggregate
	Artifacts services.ArtifactStore
	Reports   services.ReportService
	Pipeline  services.ReportPipeline
	Seeder    services.NarrativeSeeder
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, set repos.Set, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	base := aggregates.BaseDeps{
		DB:     db,
		Log:    log,
		Locker: clients.CompanyLock,
		Hooks:  aggregates.NewLogHooks(log),
	}
	if metrics != nil {
		base.Hooks = metrics
	}
	average := aggregates.NewCompanyAverageAggregate(aggregates.CompanyAverageDeps{
		Base:          base,
		Companies:     set.Companies,
		Participants:  set.Participants,
		Reports:       set.Reports,
		GroupTotals:   set.GroupTotals,
		CompletedOnly: cfg.CompletedOnlyAverage,
	})
	lifecycle := aggregates.NewReportLifecycleAggregate(aggregates.ReportLifecycleDeps{
		Base:    base,
		Reports: set.Reports,
	})

	artifacts, err := services.NewArtifactStore(log, clients.Bucket, services.ArtifactStoreConfig{
		TemplateKey: cfg.TemplateKey,
		TemplateTTL: cfg.TemplateTTL,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init artifact store: %w", err)
	}

	engine, err := reportpdf.NewEngine(log, reportpdf.DefaultLayout(), nil)
	if err != nil {
		return Services{}, fmt.Errorf("init layout engine: %w", err)
	}
	plotter, err := reportpdf.NewGGPlotter(960, 540)
	if err != nil {
		return Services{}, fmt.Errorf("init distribution plotter: %w", err)
	}
	scorer := scoring.NewAggregator(set.Surveys, set.Answers, scoring.PolicyByName(cfg.OverallPolicy), log)

	pipeline, err := services.NewReportPipeline(services.ReportPipelineDeps{
		Log:       log,
		Repos:     set,
		Scorer:    scorer,
		Average:   average,
		Lifecycle: lifecycle,
		Charts:    clients.Charts,
		Plotter:   plotter,
		Documents: engine,
		Artifacts: artifacts,
		Metrics:   metrics,
		Config: services.ReportPipelineConfig{
			ReferenceTarget: cfg.ReferenceTarget,
			LogoRequired:    cfg.LogoRequired,
		},
	})
	if err != nil {
		return Services{}, fmt.Errorf("init report pipeline: %w", err)
	}

	return Services{
		Average:   average,
		Lifecycle: lifecycle,
		Artifacts: artifacts,
		Reports:   services.NewReportService(log, set, average, lifecycle, artifacts),
		Pipeline:  pipeline,
		Seeder:    services.NewNarrativeSeeder(db, log, set.Surveys, set.Narratives),
	}, nil
}
