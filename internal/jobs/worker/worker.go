package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/envutil"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
	"github.com/yungbote/surveyreport-backend/internal/services"
)

type Config struct {
	Concurrency  int
	PollInterval time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		Concurrency:  envutil.Int("WORKER_CONCURRENCY", 1, log),
		PollInterval: envutil.Millis("WORKER_POLL_INTERVAL_MS", time.Second, log),
	}
}

// Worker drains the report queue. Each loop claims at most one pending report
// per tick and processes it to a terminal status before claiming the next.
type Worker struct {
	log      *logger.Logger
	reports  repos.ReportRepo
	pipeline services.ReportPipeline
	cfg      Config
	wg       sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger, reports repos.ReportRepo, pipeline services.ReportPipeline, cfg Config) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Worker{
		log:      baseLog.With("component", "ReportWorker"),
		reports:  reports,
		pipeline: pipeline,
		cfg:      cfg,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting report worker pool", "concurrency", w.cfg.Concurrency, "poll_interval", w.cfg.PollInterval)
	for i := 0; i < w.cfg.Concurrency; i++ {
		workerID := i + 1
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runLoop(ctx, workerID)
		}()
	}
}

// Wait blocks until every loop started by Start has returned.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			if _, err := w.process(ctx, workerID); err != nil {
				w.log.Warn("Report tick failed", "worker_id", workerID, "error", err)
			}
		}
	}
}

// ProcessNext claims and processes one pending report. It reports false when
// the queue was empty. A pipeline failure is recorded on the report and is
// not returned.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	return w.process(ctx, 0)
}

func (w *Worker) process(ctx context.Context, workerID int) (processed bool, err error) {
	report, err := w.reports.ClaimNextPending(dbctx.Context{Ctx: ctx})
	if err != nil {
		return false, fmt.Errorf("claim next pending: %w", err)
	}
	if report == nil {
		return false, nil
	}
	log := w.log.With("worker_id", workerID, "report_id", report.ID, "attempt", report.Attempts)
	log.Info("Claimed report")

	defer func() {
		if r := recover(); r != nil {
			log.Error("Report pipeline panic escaped", "panic", r)
			processed, err = true, nil
		}
	}()
	if runErr := w.pipeline.Run(ctx, report); runErr != nil {
		log.Warn("Report failed", "kind", services.KindOf(runErr), "error", runErr)
	}
	return true, nil
}
