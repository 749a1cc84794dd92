package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/yungbote/surveyreport-backend/internal/clients/chartrender"
	"github.com/yungbote/surveyreport-backend/internal/data/aggregates"
	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	"github.com/yungbote/surveyreport-backend/internal/data/repos/testutil"
	types "github.com/yungbote/surveyreport-backend/internal/domain"
	domainagg "github.com/yungbote/surveyreport-backend/internal/domain/aggregates"
	"github.com/yungbote/surveyreport-backend/internal/domain/survey"
	"github.com/yungbote/surveyreport-backend/internal/observability"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/gcp"
	"github.com/yungbote/surveyreport-backend/internal/platform/localstore"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
	"github.com/yungbote/surveyreport-backend/internal/reportpdf"
	"github.com/yungbote/surveyreport-backend/internal/scoring"
)

const testTemplateKey = "templates/base.pdf"

func blankTemplate(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 10)
	for i := 1; i <= pages; i++ {
		pdf.AddPage()
		pdf.Text(40, 40, fmt.Sprintf("template page %d", i))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("template: %v", err)
	}
	return buf.Bytes()
}

type pipelineFixture struct {
	db          *gorm.DB
	set         repos.Set
	survey      *testutil.SurveyFixture
	company     *types.Company
	participant *types.Participant
	average     domainagg.CompanyAverageAggregate
	lifecycle   domainagg.ReportLifecycleAggregate
	store       ArtifactStore
	metrics     *observability.Metrics
	log         *logger.Logger
}

// newPipelineFixture seeds a two-group survey answered 2/2 and 1/2, so the
// participant scores 100 and 50 with an overall of 75.
func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	base := aggregates.BaseDeps{DB: db, Log: log}

	local, err := localstore.New(logger.Nop(), t.TempDir(), "")
	if err != nil {
		t.Fatalf("localstore.New: %v", err)
	}
	err = local.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryAsset, testTemplateKey, bytes.NewReader(blankTemplate(t, reportpdf.PageCount)))
	if err != nil {
		t.Fatalf("upload template: %v", err)
	}
	store, err := NewArtifactStore(log, local, ArtifactStoreConfig{TemplateKey: testTemplateKey})
	if err != nil {
		t.Fatalf("NewArtifactStore: %v", err)
	}

	fx := &pipelineFixture{
		db:      db,
		set:     set,
		survey:  testutil.SeedBinarySurvey(t, ctx, db, 2, 2),
		company: testutil.SeedCompany(t, ctx, db, "Acme"),
		average: aggregates.NewCompanyAverageAggregate(aggregates.CompanyAverageDeps{
			Base:         base,
			Companies:    set.Companies,
			Participants: set.Participants,
			Reports:      set.Reports,
			GroupTotals:  set.GroupTotals,
		}),
		lifecycle: aggregates.NewReportLifecycleAggregate(aggregates.ReportLifecycleDeps{Base: base, Reports: set.Reports}),
		store:     store,
		metrics:   observability.NewMetrics(),
	}
	fx.participant = testutil.SeedParticipant(t, ctx, db, fx.company.ID, "Ana Perez")
	testutil.SeedAnswers(t, ctx, db, fx.participant.ID,
		fx.survey.Correct[0][0], fx.survey.Correct[0][1],
		fx.survey.Correct[1][0], fx.survey.Wrong[1][1],
	)

	dbc := dbctx.Context{Ctx: ctx}
	err = set.Narratives.ReplaceGroupNarratives(dbc, fx.survey.Groups[0].ID, []*types.GroupNarrative{
		{MinScore: decimal.Zero, Text: "Needs work."},
		{MinScore: decimal.NewFromInt(70), Text: "Strong results in this area."},
	})
	if err != nil {
		t.Fatalf("seed group narratives: %v", err)
	}
	err = set.Narratives.ReplaceSummaryNarratives(dbc, survey.SummaryOverview, []*types.SummaryNarrative{
		{MinScore: decimal.Zero, Title: "Overview", Text: "A balanced profile."},
	})
	if err != nil {
		t.Fatalf("seed summary narratives: %v", err)
	}
	return fx
}

func (fx *pipelineFixture) pipeline(t *testing.T, charts ChartSource, docs DocumentRenderer) ReportPipeline {
	t.Helper()
	log := fx.log
	if log == nil {
		log = testutil.Logger(t)
	}
	if charts == nil {
		bar, err := reportpdf.NewGGBarChart(400, 200)
		if err != nil {
			t.Fatalf("NewGGBarChart: %v", err)
		}
		charts = NewLocalChartSource(bar)
	}
	if docs == nil {
		engine, err := reportpdf.NewEngine(log, reportpdf.DefaultLayout(), nil)
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
		docs = engine
	}
	plotter, err := reportpdf.NewGGPlotter(320, 180)
	if err != nil {
		t.Fatalf("NewGGPlotter: %v", err)
	}
	p, err := NewReportPipeline(ReportPipelineDeps{
		Log:       log,
		Repos:     fx.set,
		Scorer:    scoring.NewAggregator(fx.set.Surveys, fx.set.Answers, nil, log),
		Average:   fx.average,
		Lifecycle: fx.lifecycle,
		Charts:    charts,
		Plotter:   plotter,
		Documents: docs,
		Artifacts: fx.store,
		Metrics:   fx.metrics,
	})
	if err != nil {
		t.Fatalf("NewReportPipeline: %v", err)
	}
	return p
}

// claim creates a pending report and moves it to processing.
func (fx *pipelineFixture) claim(t *testing.T) *types.Report {
	t.Helper()
	ctx := context.Background()
	created, _, err := fx.average.CreateReport(ctx, domainagg.CreateReportInput{SurveyID: fx.survey.Survey.ID, ParticipantID: fx.participant.ID})
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	claimed, err := fx.set.Reports.ClaimNextPending(dbctx.Context{Ctx: ctx})
	if err != nil {
		t.Fatalf("ClaimNextPending: %v", err)
	}
	if claimed == nil || claimed.ID != created.ID {
		t.Fatalf("ClaimNextPending: want=%s got=%v", created.ID, claimed)
	}
	return claimed
}

func (fx *pipelineFixture) reload(t *testing.T, id uuid.UUID) *types.Report {
	t.Helper()
	r, err := fx.set.Reports.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil || r == nil {
		t.Fatalf("GetByID(%s): %v", id, err)
	}
	return r
}

func TestReportPipelineCompletesReport(t *testing.T) {
	fx := newPipelineFixture(t)
	report := fx.claim(t)

	if err := fx.pipeline(t, nil, nil).Run(context.Background(), report); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := fx.reload(t, report.ID)
	if got.Status != types.ReportStatusCompleted {
		t.Fatalf("status: want=%s got=%s (log=%q)", types.ReportStatusCompleted, got.Status, got.Log)
	}
	if got.ArtifactKey == nil || *got.ArtifactKey == "" {
		t.Fatalf("completed report without artifact key")
	}
	if !got.Total.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("total: want=75 got=%s", got.Total)
	}
	if got.Grade != survey.GradeAP {
		t.Fatalf("grade: want=%s got=%s", survey.GradeAP, got.Grade)
	}

	totals, err := fx.set.GroupTotals.ListByReport(dbctx.Context{Ctx: context.Background()}, report.ID)
	if err != nil {
		t.Fatalf("ListByReport: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("group totals: want=2 got=%d", len(totals))
	}

	doc, err := fx.store.Read(context.Background(), *got.ArtifactKey)
	if err != nil {
		t.Fatalf("Read artifact: %v", err)
	}
	pages, err := reportpdf.CountPages(doc)
	if err != nil {
		t.Fatalf("CountPages: %v", err)
	}
	if pages != reportpdf.PageCount {
		t.Fatalf("pages: want=%d got=%d", reportpdf.PageCount, pages)
	}

	company, err := fx.set.Companies.GetByID(dbctx.Context{Ctx: context.Background()}, fx.company.ID)
	if err != nil || company == nil {
		t.Fatalf("GetByID company: %v", err)
	}
	if !company.AverageTotal.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("company average: want=75 got=%s", company.AverageTotal)
	}
	var exposition bytes.Buffer
	if err := fx.metrics.WritePrometheus(&exposition); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	if want := `surveyreport_reports_processed_total{status="completed"} 1`; !strings.Contains(exposition.String(), want) {
		t.Fatalf("missing %q in metrics", want)
	}
}

type failingCharts struct{ err error }

func (failingCharts) Name() string { return "failing" }

func (f failingCharts) Chart(context.Context, []chartrender.ChartPoint) ([]byte, error) {
	return nil, f.err
}

func TestReportPipelineRecordsUpstreamFailure(t *testing.T) {
	fx := newPipelineFixture(t)
	report := fx.claim(t)

	err := fx.pipeline(t, failingCharts{err: errors.New("screenshot service down")}, nil).Run(context.Background(), report)
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("want StageError got=%v", err)
	}
	if se.Stage != StageInputs || se.Kind != KindUpstreamRender {
		t.Fatalf("stage/kind: want=%s/%s got=%s/%s", StageInputs, KindUpstreamRender, se.Stage, se.Kind)
	}

	got := fx.reload(t, report.ID)
	if got.Status != types.ReportStatusError {
		t.Fatalf("status: want=%s got=%s", types.ReportStatusError, got.Status)
	}
	if got.ArtifactKey != nil {
		t.Fatalf("failed report keeps artifact key %q", *got.ArtifactKey)
	}
	if !strings.Contains(got.Log, "upstream_render") || !strings.Contains(got.Log, "screenshot service down") {
		t.Fatalf("log: got=%q", got.Log)
	}
	if !strings.Contains(string(got.LastFailure), `"stage":"inputs"`) {
		t.Fatalf("last failure: got=%s", got.LastFailure)
	}
}

func TestReportPipelineFailsOnMissingParticipant(t *testing.T) {
	fx := newPipelineFixture(t)
	orphan := testutil.SeedReport(t, context.Background(), fx.db, fx.survey.Survey.ID, uuid.New(), types.ReportStatusProcessing, "0", time.Now())

	err := fx.pipeline(t, nil, nil).Run(context.Background(), orphan)
	if KindOf(err) != KindDataIntegrity {
		t.Fatalf("kind: want=%s got=%s (%v)", KindDataIntegrity, KindOf(err), err)
	}
	if got := fx.reload(t, orphan.ID); got.Status != types.ReportStatusError {
		t.Fatalf("status: want=%s got=%s", types.ReportStatusError, got.Status)
	}
}

type panickingRenderer struct{}

func (panickingRenderer) Render([]byte, reportpdf.Payload) ([]byte, *reportpdf.Plan, error) {
	panic("layout exploded")
}

func TestReportPipelineRecoversPanics(t *testing.T) {
	fx := newPipelineFixture(t)
	report := fx.claim(t)

	err := fx.pipeline(t, nil, panickingRenderer{}).Run(context.Background(), report)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageRender || se.Kind != KindInternal {
		t.Fatalf("want render/internal StageError got=%v", err)
	}
	got := fx.reload(t, report.ID)
	if got.Status != types.ReportStatusError {
		t.Fatalf("status: want=%s got=%s", types.ReportStatusError, got.Status)
	}
	if !strings.Contains(got.Log, "layout exploded") {
		t.Fatalf("log: got=%q", got.Log)
	}
}

func TestReportPipelineMarksFailureAfterCancel(t *testing.T) {
	fx := newPipelineFixture(t)
	report := fx.claim(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := fx.pipeline(t, nil, nil).Run(ctx, report); err == nil {
		t.Fatalf("canceled run should fail")
	}
	if got := fx.reload(t, report.ID); got.Status != types.ReportStatusError {
		t.Fatalf("status: want=%s got=%s", types.ReportStatusError, got.Status)
	}
}

func TestChartPointsUseCompanyAverageWhenEnabled(t *testing.T) {
	fx := newPipelineFixture(t)
	p := fx.pipeline(t, nil, nil).(*reportPipeline)
	g0, g1 := fx.survey.Groups[0], fx.survey.Groups[1]
	run := &reportRun{
		company: &types.Company{UseAverage: false},
		result: scoring.Result{Groups: []scoring.GroupResult{
			{Group: g0, Total: decimal.NewFromInt(100)},
			{Group: g1, Total: decimal.NewFromInt(50)},
		}},
	}
	stats := map[uuid.UUID]repos.GroupStat{
		g0.ID: {QuestionGroupID: g0.ID, AvgTotal: decimal.RequireFromString("62.505"), MinTotal: decimal.NewFromInt(20), MaxTotal: decimal.NewFromInt(100), N: 4},
	}

	points := p.chartPoints(run, stats)
	if len(points) != 2 {
		t.Fatalf("points: want=2 got=%d", len(points))
	}
	if points[0].Average != 80 || points[0].Min != 20 || points[0].Max != 100 {
		t.Fatalf("reference point: got=%+v", points[0])
	}
	if points[1].Min != 50 || points[1].Max != 50 || points[1].Description != g1.Name {
		t.Fatalf("group without stats: got=%+v", points[1])
	}

	run.company.UseAverage = true
	points = p.chartPoints(run, stats)
	if points[0].Average != 62.51 {
		t.Fatalf("company average: want=62.51 got=%v", points[0].Average)
	}
	if points[1].Average != 80 {
		t.Fatalf("group without stats keeps reference: got=%v", points[1].Average)
	}
}

func TestMissingLogoWarningCarriesReportID(t *testing.T) {
	fx := newPipelineFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	fx.log = logger.FromZap(zap.New(core), logger.Options{})
	err := fx.db.Model(&types.Company{}).Where("id = ?", fx.company.ID).Update("logo_key", "logos/missing.png").Error
	if err != nil {
		t.Fatalf("set logo key: %v", err)
	}
	report := fx.claim(t)

	if err := fx.pipeline(t, nil, nil).Run(context.Background(), report); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := fx.reload(t, report.ID); got.Status != types.ReportStatusCompleted {
		t.Fatalf("status: want=%s got=%s", types.ReportStatusCompleted, got.Status)
	}

	warned := logs.FilterMessageSnippet("Company logo unavailable").All()
	if len(warned) != 1 {
		t.Fatalf("logo warnings: want=1 got=%d", len(warned))
	}
	if got := warned[0].ContextMap()["report_id"]; got != report.ID.String() {
		t.Fatalf("report_id: want=%s got=%v", report.ID, got)
	}
}
