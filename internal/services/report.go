package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	types "github.com/yungbote/surveyreport-backend/internal/domain"
	domainagg "github.com/yungbote/surveyreport-backend/internal/domain/aggregates"
	"github.com/yungbote/surveyreport-backend/internal/platform/apierr"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

// ReportView is a report with its per-group totals and, once completed, a
// link to the stored document.
type ReportView struct {
	Report      *types.Report                     `json:"report"`
	GroupTotals []*types.ReportQuestionGroupTotal `json:"group_totals"`
	DownloadURL string                            `json:"download_url,omitempty"`
}

type ReportService interface {
	// Create enqueues a pending report and refreshes the company average.
	Create(ctx context.Context, surveyID, participantID uuid.UUID) (*types.Report, domainagg.RecomputeResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ReportView, error)
	Requeue(ctx context.Context, id uuid.UUID, reason string) (*types.Report, error)
	RecomputeAverage(ctx context.Context, companyID uuid.UUID) (domainagg.RecomputeResult, error)
	Stats(ctx context.Context) (map[string]int64, error)
}

type reportService struct {
	log       *logger.Logger
	repos     repos.Set
	average   domainagg.CompanyAverageAggregate
	lifecycle domainagg.ReportLifecycleAggregate
	artifacts ArtifactStore
}

func NewReportService(
	baseLog *logger.Logger,
	set repos.Set,
	average domainagg.CompanyAverageAggregate,
	lifecycle domainagg.ReportLifecycleAggregate,
	artifacts ArtifactStore,
) ReportService {
	return &reportService{
		log:       baseLog.With("service", "ReportService"),
		repos:     set,
		average:   average,
		lifecycle: lifecycle,
		artifacts: artifacts,
	}
}

func (s *reportService) Create(ctx context.Context, surveyID, participantID uuid.UUID) (*types.Report, domainagg.RecomputeResult, error) {
	var none domainagg.RecomputeResult
	if surveyID == uuid.Nil {
		return nil, none, apierr.BadRequest("missing_survey_id", errors.New("missing survey_id"))
	}
	if participantID == uuid.Nil {
		return nil, none, apierr.BadRequest("missing_participant_id", errors.New("missing participant_id"))
	}
	sv, err := s.repos.Surveys.GetByID(dbctx.Context{Ctx: ctx}, surveyID)
	if err != nil {
		return nil, none, err
	}
	if sv == nil {
		return nil, none, apierr.NotFound("survey_not_found", fmt.Errorf("survey not found: %s", surveyID))
	}
	report, res, err := s.average.CreateReport(ctx, domainagg.CreateReportInput{SurveyID: surveyID, ParticipantID: participantID})
	if err != nil {
		return nil, none, aggregateAPIError(err, "create_report_failed")
	}
	s.log.WithContext(ctx).Info("Report enqueued",
		"report_id", report.ID,
		"participant_id", participantID,
		"company_id", res.CompanyID,
		"company_average", res.AverageTotal.StringFixed(2),
	)
	return report, res, nil
}

func (s *reportService) Get(ctx context.Context, id uuid.UUID) (*ReportView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	report, err := s.repos.Reports.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, apierr.NotFound("report_not_found", fmt.Errorf("report not found: %s", id))
	}
	totals, err := s.repos.GroupTotals.ListByReport(dbc, id)
	if err != nil {
		return nil, err
	}
	view := &ReportView{Report: report, GroupTotals: totals}
	if report.Status == types.ReportStatusCompleted && report.ArtifactKey != nil && s.artifacts != nil {
		view.DownloadURL = s.artifacts.PublicURL(*report.ArtifactKey)
	}
	return view, nil
}

func (s *reportService) Requeue(ctx context.Context, id uuid.UUID, reason string) (*types.Report, error) {
	if err := s.lifecycle.Requeue(ctx, id, reason); err != nil {
		return nil, aggregateAPIError(err, "requeue_failed")
	}
	report, err := s.repos.Reports.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("Report requeued", "report_id", id, "reason", reason)
	return report, nil
}

func (s *reportService) RecomputeAverage(ctx context.Context, companyID uuid.UUID) (domainagg.RecomputeResult, error) {
	res, err := s.average.Recompute(ctx, companyID)
	if err != nil {
		return domainagg.RecomputeResult{}, aggregateAPIError(err, "recompute_failed")
	}
	return res, nil
}

func (s *reportService) Stats(ctx context.Context) (map[string]int64, error) {
	counts, err := s.repos.Reports.CountByStatus(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	for _, st := range []string{types.ReportStatusPending, types.ReportStatusProcessing, types.ReportStatusCompleted, types.ReportStatusError} {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

func aggregateAPIError(err error, code string) error {
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return apierr.BadRequest(code, err)
	case domainagg.CodeNotFound:
		return apierr.NotFound(code, err)
	case domainagg.CodeInvariantViolation, domainagg.CodePreconditionFailed, domainagg.CodeConflict:
		return apierr.Conflict(code, err)
	case domainagg.CodeRetryable:
		return apierr.Unavailable(code, err)
	default:
		return err
	}
}
