package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/surveyreport-backend/internal/clients/chartrender"
	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	types "github.com/yungbote/surveyreport-backend/internal/domain"
	domainagg "github.com/yungbote/surveyreport-backend/internal/domain/aggregates"
	"github.com/yungbote/surveyreport-backend/internal/domain/survey"
	"github.com/yungbote/surveyreport-backend/internal/grading"
	"github.com/yungbote/surveyreport-backend/internal/observability"
	"github.com/yungbote/surveyreport-backend/internal/platform/ctxutil"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
	"github.com/yungbote/surveyreport-backend/internal/reportpdf"
	"github.com/yungbote/surveyreport-backend/internal/scoring"
)

// DocumentRenderer lays a payload onto the base template.
type DocumentRenderer interface {
	Render(template []byte, p reportpdf.Payload) ([]byte, *reportpdf.Plan, error)
}

type ReportPipelineConfig struct {
	// ReferenceTarget is the comparison value used when the company has not
	// opted into comparing against its own average.
	ReferenceTarget decimal.Decimal
	// LogoRequired fails the run when the company logo cannot be read.
	LogoRequired bool
	FailTimeout  time.Duration
}

type ReportPipelineDeps struct {
	Log       *logger.Logger
	Repos     repos.Set
	Scorer    scoring.Aggregator
	Average   domainagg.CompanyAverageAggregate
	Lifecycle domainagg.ReportLifecycleAggregate
	Charts    ChartSource
	Plotter   reportpdf.DistributionPlotter
	Documents DocumentRenderer
	Artifacts ArtifactStore
	Metrics   *observability.Metrics
	Config    ReportPipelineConfig
	Now       func() time.Time
}

// ReportPipeline turns one claimed (processing) report into a stored
// document and a terminal status.
type ReportPipeline interface {
	Run(ctx context.Context, report *types.Report) error
}

type reportPipeline struct {
	log  *logger.Logger
	deps ReportPipelineDeps
}

func NewReportPipeline(deps ReportPipelineDeps) (ReportPipeline, error) {
	switch {
	case deps.Log == nil:
		return nil, fmt.Errorf("logger required")
	case deps.Scorer == nil || deps.Average == nil || deps.Lifecycle == nil:
		return nil, fmt.Errorf("scoring and aggregate dependencies required")
	case deps.Charts == nil || deps.Plotter == nil:
		return nil, fmt.Errorf("chart and distribution renderers required")
	case deps.Documents == nil || deps.Artifacts == nil:
		return nil, fmt.Errorf("document renderer and artifact store required")
	case deps.Repos.Surveys == nil || deps.Repos.Participants == nil || deps.Repos.Companies == nil ||
		deps.Repos.Narratives == nil || deps.Repos.Reports == nil || deps.Repos.GroupTotals == nil:
		return nil, fmt.Errorf("repositories required")
	}
	if deps.Config.ReferenceTarget.IsZero() {
		deps.Config.ReferenceTarget = decimal.NewFromInt(80)
	}
	if deps.Config.FailTimeout <= 0 {
		deps.Config.FailTimeout = 15 * time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &reportPipeline{log: deps.Log.With("service", "ReportPipeline"), deps: deps}, nil
}

// reportRun carries the state one run accumulates stage by stage.
type reportRun struct {
	report      *types.Report
	survey      *types.Survey
	participant *types.Participant
	company     *types.Company

	result  scoring.Result
	grade   survey.Grade
	catalog *grading.Catalog
	average domainagg.RecomputeResult

	peerMean  decimal.Decimal
	reference decimal.Decimal
	images    map[string][]byte
	template  []byte

	document    []byte
	artifactKey string
}

type pipelineStage struct {
	name Stage
	fn   func(ctx context.Context, run *reportRun) error
}

func (p *reportPipeline) stages() []pipelineStage {
	return []pipelineStage{
		{StageLoad, p.load},
		{StageScore, p.score},
		{StageClassify, p.classify},
		{StageRecord, p.record},
		{StageInputs, p.inputs},
		{StageRender, p.render},
		{StagePersist, p.persist},
	}
}

func (p *reportPipeline) Run(ctx context.Context, report *types.Report) (err error) {
	if report == nil || report.ID == uuid.Nil {
		return stageError(StageLoad, KindValidation, errors.New("missing report"))
	}
	ctx = ctxutil.WithReportID(ctx, report.ID.String())
	log := p.log.WithContext(ctx)
	started := p.deps.Now()
	run := &reportRun{report: report}
	current := StageLoad

	ctx, span := observability.StartSpan(ctx, "report.pipeline", attribute.String("report.id", report.ID.String()))
	defer func() {
		if r := recover(); r != nil {
			log.Error("Report pipeline panic", "stage", current, "panic", r, "stack", string(debug.Stack()))
			err = &StageError{Stage: current, Kind: KindInternal, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			p.fail(ctx, log, report.ID, err)
			p.deps.Metrics.IncReportOutcome(types.ReportStatusError)
		} else {
			p.deps.Metrics.IncReportOutcome(types.ReportStatusCompleted)
			log.Info("Report completed",
				"artifact_key", run.artifactKey,
				"total", run.result.Overall.StringFixed(2),
				"grade", run.grade,
				"company_average", run.average.AverageTotal.StringFixed(2),
				"duration_ms", p.deps.Now().Sub(started).Milliseconds(),
			)
		}
		observability.EndSpan(span, err)
	}()

	for _, st := range p.stages() {
		current = st.name
		if err := p.runStage(ctx, st, run); err != nil {
			return err
		}
	}
	return nil
}

func (p *reportPipeline) runStage(ctx context.Context, st pipelineStage, run *reportRun) (err error) {
	start := p.deps.Now()
	ctx, span := observability.StartSpan(ctx, "report.stage."+string(st.name), attribute.String("report.stage", string(st.name)))
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		p.deps.Metrics.ObserveReportStage(string(st.name), status, p.deps.Now().Sub(start))
		observability.EndSpan(span, err)
	}()
	if err := ctx.Err(); err != nil {
		return stageError(st.name, KindInternal, err)
	}
	return st.fn(ctx, run)
}

// fail records the error on the report even when ctx is already canceled, so
// a clean failure never leaves the report in processing.
func (p *reportPipeline) fail(ctx context.Context, log *logger.Logger, reportID uuid.UUID, cause error) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.deps.Config.FailTimeout)
	defer cancel()
	at := p.deps.Now().UTC()
	line := fmt.Sprintf("%s %v", at.Format(time.RFC3339), cause)
	if err := p.deps.Lifecycle.Fail(fctx, reportID, line, failureDetail(cause, at)); err != nil {
		log.Error("Could not mark report as failed", "error", err, "cause", cause)
		return
	}
	log.Warn("Report failed", "kind", KindOf(cause), "error", cause)
}

func (p *reportPipeline) load(ctx context.Context, run *reportRun) error {
	dbc := dbctx.Context{Ctx: ctx}
	r := run.report

	s, err := p.deps.Repos.Surveys.GetByID(dbc, r.SurveyID)
	if err != nil {
		return stageError(StageLoad, KindInternal, err)
	}
	if s == nil {
		return stageError(StageLoad, KindDataIntegrity, fmt.Errorf("survey %s not found", r.SurveyID))
	}
	participant, err := p.deps.Repos.Participants.GetByID(dbc, r.ParticipantID)
	if err != nil {
		return stageError(StageLoad, KindInternal, err)
	}
	if participant == nil {
		return stageError(StageLoad, KindDataIntegrity, fmt.Errorf("participant %s not found", r.ParticipantID))
	}
	company, err := p.deps.Repos.Companies.GetByID(dbc, participant.CompanyID)
	if err != nil {
		return stageError(StageLoad, KindInternal, err)
	}
	if company == nil {
		return stageError(StageLoad, KindDataIntegrity, fmt.Errorf("company %s of participant %s not found", participant.CompanyID, participant.ID))
	}
	run.survey, run.participant, run.company = s, participant, company
	return nil
}

func (p *reportPipeline) score(ctx context.Context, run *reportRun) error {
	res, err := p.deps.Scorer.Score(ctx, run.survey.ID, run.participant.ID)
	if err != nil {
		return stageError(StageScore, KindInternal, err)
	}
	if len(res.Groups) > reportpdf.GroupPages {
		return stageError(StageScore, KindValidation, fmt.Errorf("survey has %d question groups, the report holds %d", len(res.Groups), reportpdf.GroupPages))
	}
	run.result = res
	return nil
}

func (p *reportPipeline) classify(ctx context.Context, run *reportRun) error {
	dbc := dbctx.Context{Ctx: ctx}
	run.grade = grading.Classify(run.result.Overall)

	groupIDs := make([]uuid.UUID, 0, len(run.result.Groups))
	for _, g := range run.result.Groups {
		groupIDs = append(groupIDs, g.Group.ID)
	}
	groupRows, err := p.deps.Repos.Narratives.ListGroupNarratives(dbc, groupIDs)
	if err != nil {
		return stageError(StageClassify, KindInternal, err)
	}
	summaryRows, err := p.deps.Repos.Narratives.ListSummaryNarratives(dbc)
	if err != nil {
		return stageError(StageClassify, KindInternal, err)
	}
	run.catalog = grading.NewCatalog(groupRows, summaryRows)
	return nil
}

func (p *reportPipeline) record(ctx context.Context, run *reportRun) error {
	totals := make([]domainagg.GroupScore, 0, len(run.result.Groups))
	for _, g := range run.result.Groups {
		totals = append(totals, domainagg.GroupScore{QuestionGroupID: g.Group.ID, Total: g.Total})
	}
	avg, err := p.deps.Average.RecordScores(ctx, domainagg.RecordScoresInput{
		ReportID:    run.report.ID,
		Total:       run.result.Overall,
		Grade:       run.grade,
		GroupTotals: totals,
	})
	if err != nil {
		return stageError(StageRecord, aggregateKind(err), err)
	}
	run.average = avg
	return nil
}

func (p *reportPipeline) inputs(ctx context.Context, run *reportRun) error {
	dbc := dbctx.Context{Ctx: ctx}
	stats, err := p.deps.Repos.GroupTotals.StatsByCompany(dbc, run.company.ID)
	if err != nil {
		return stageError(StageInputs, KindInternal, err)
	}
	totals, err := p.deps.Repos.Reports.TotalsByCompany(dbc, run.company.ID, []string{types.ReportStatusCompleted})
	if err != nil {
		return stageError(StageInputs, KindInternal, err)
	}
	sample := make([]float64, 0, len(totals))
	for _, t := range totals {
		sample = append(sample, t.InexactFloat64())
	}
	overall := run.result.Overall.InexactFloat64()
	mean, _ := reportpdf.FitNormal(sample, overall)
	run.peerMean = decimal.NewFromFloat(mean).Round(2)
	run.reference = p.deps.Config.ReferenceTarget
	if run.company.UseAverage {
		run.reference = run.average.AverageTotal
	}
	points := p.chartPoints(run, stats)

	var chart, bell, logo, template []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := p.deps.Charts.Chart(gctx, points)
		if err != nil {
			p.deps.Metrics.IncChartRender(p.deps.Charts.Name(), "error")
			return stageError(StageInputs, KindUpstreamRender, fmt.Errorf("chart: %w", err))
		}
		p.deps.Metrics.IncChartRender(p.deps.Charts.Name(), "ok")
		chart = raw
		return nil
	})
	g.Go(func() error {
		raw, err := p.deps.Plotter.Plot(gctx, reportpdf.DistributionInput{
			Score:            overall,
			Sample:           sample,
			CompanyReference: run.reference.InexactFloat64(),
		})
		if err != nil {
			return stageError(StageInputs, KindUpstreamRender, fmt.Errorf("distribution plot: %w", err))
		}
		bell = raw
		return nil
	})
	g.Go(func() error {
		raw, err := p.deps.Artifacts.Template(gctx)
		if err != nil {
			return stageError(StageInputs, KindArtifactPersist, err)
		}
		template = raw
		return nil
	})
	if key := run.company.LogoKey; key != "" {
		g.Go(func() error {
			raw, err := p.deps.Artifacts.ReadAsset(gctx, key)
			if err != nil {
				if p.deps.Config.LogoRequired {
					return stageError(StageInputs, KindArtifactPersist, fmt.Errorf("company logo: %w", err))
				}
				p.log.WithContext(gctx).Warn("Company logo unavailable, rendering without it", "company_id", run.company.ID, "key", key, "error", err)
				return nil
			}
			logo = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	run.images = map[string][]byte{reportpdf.ImageChart: chart, reportpdf.ImageBell: bell}
	if len(logo) > 0 {
		run.images[reportpdf.ImageLogo] = logo
	}
	run.template = template
	return nil
}

// chartPoints builds one bar per group in page order. Min and max come from
// the company's recorded group totals.
func (p *reportPipeline) chartPoints(run *reportRun, stats map[uuid.UUID]repos.GroupStat) []chartrender.ChartPoint {
	points := make([]chartrender.ChartPoint, 0, len(run.result.Groups))
	for _, g := range run.result.Groups {
		value := g.Total.InexactFloat64()
		pt := chartrender.ChartPoint{
			Value:       value,
			Average:     p.deps.Config.ReferenceTarget.InexactFloat64(),
			Min:         value,
			Max:         value,
			Description: g.Group.Name,
		}
		if st, ok := stats[g.Group.ID]; ok && st.N > 0 {
			pt.Min = st.MinTotal.InexactFloat64()
			pt.Max = st.MaxTotal.InexactFloat64()
			if run.company.UseAverage {
				pt.Average = st.AvgTotal.Round(2).InexactFloat64()
			}
		}
		points = append(points, pt)
	}
	return points
}

func (p *reportPipeline) render(ctx context.Context, run *reportRun) error {
	payload := p.payload(run)
	doc, plan, err := p.deps.Documents.Render(run.template, payload)
	if err != nil {
		kind := KindInternal
		switch {
		case errors.Is(err, reportpdf.ErrInvalidPayload):
			kind = KindValidation
		case errors.Is(err, reportpdf.ErrPageCount):
			kind = KindDataIntegrity
		}
		return stageError(StageRender, kind, err)
	}
	if plan != nil && len(plan.Overflows) > 0 {
		p.log.WithContext(ctx).Warn("Report text overflows its layout region", "rules", plan.Overflows)
	}
	run.document = doc
	return nil
}

func (p *reportPipeline) payload(run *reportRun) reportpdf.Payload {
	groups := make([]reportpdf.GroupSection, 0, len(run.result.Groups))
	for _, g := range run.result.Groups {
		text, _ := run.catalog.GroupText(g.Group.ID, g.Total)
		groups = append(groups, reportpdf.GroupSection{Name: g.Group.Name, Score: g.Total, Narrative: text})
	}
	blocks := run.catalog.Summaries(run.result.Overall)
	summaries := make([]reportpdf.SummarySection, 0, len(blocks))
	for _, b := range blocks {
		summaries = append(summaries, reportpdf.SummarySection{Title: b.Title, Text: b.Text})
	}
	return reportpdf.Payload{
		ParticipantName:  run.participant.FullName,
		CompanyName:      run.company.Name,
		IssueDate:        p.deps.Now(),
		Grade:            run.grade,
		Overall:          run.result.Overall,
		PeerMean:         run.peerMean,
		CompanyReference: run.reference,
		Groups:           groups,
		Summaries:        summaries,
		Images:           run.images,
	}
}

func (p *reportPipeline) persist(ctx context.Context, run *reportRun) error {
	key, err := p.deps.Artifacts.Save(ctx, run.report.ID, run.document)
	if err != nil {
		return stageError(StagePersist, KindArtifactPersist, err)
	}
	if err := p.deps.Lifecycle.Complete(ctx, run.report.ID, key); err != nil {
		if delErr := p.deps.Artifacts.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			p.log.WithContext(ctx).Warn("Orphaned report artifact", "key", key, "error", delErr)
		}
		return stageError(StagePersist, aggregateKind(err), err)
	}
	run.artifactKey = key
	return nil
}
