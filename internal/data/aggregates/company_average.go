package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	types "github.com/yungbote/surveyreport-backend/internal/domain"
	domainagg "github.com/yungbote/surveyreport-backend/internal/domain/aggregates"
	"github.com/yungbote/surveyreport-backend/internal/domain/survey"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/scoring"
)

type CompanyAverageDeps struct {
	Base BaseDeps

	Companies    repos.CompanyRepo
	Participants repos.ParticipantRepo
	Reports      repos.ReportRepo
	GroupTotals  repos.GroupTotalRepo

	// CompletedOnly restricts the average to completed reports. By default
	// every report of the company counts, whatever its status.
	CompletedOnly bool
}

type companyAverageAggregate struct {
	deps CompanyAverageDeps
}

func NewCompanyAverageAggregate(deps CompanyAverageDeps) domainagg.CompanyAverageAggregate {
	deps.Base = deps.Base.withDefaults()
	return &companyAverageAggregate{deps: deps}
}

func (a *companyAverageAggregate) Contract() domainagg.Contract {
	return domainagg.CompanyAverageContract
}

func companyLockKey(id uuid.UUID) string {
	return domainagg.CompanyAverageContract.LockScope + ":" + id.String()
}

func (a *companyAverageAggregate) configured() bool {
	return a.deps.Companies != nil && a.deps.Participants != nil && a.deps.Reports != nil && a.deps.GroupTotals != nil
}

func (a *companyAverageAggregate) CreateReport(ctx context.Context, in domainagg.CreateReportInput) (*types.Report, domainagg.RecomputeResult, error) {
	op := domainagg.CompanyAverageContract.Op("CreateReport")
	var out domainagg.RecomputeResult
	if in.SurveyID == uuid.Nil {
		return nil, out, domainagg.NewError(domainagg.CodeValidation, op, "missing survey_id", nil)
	}
	if in.ParticipantID == uuid.Nil {
		return nil, out, domainagg.NewError(domainagg.CodeValidation, op, "missing participant_id", nil)
	}
	if !a.configured() {
		return nil, out, domainagg.NewError(domainagg.CodeInternal, op, "company average repos not configured", nil)
	}

	p, err := a.deps.Participants.GetByID(dbctx.Context{Ctx: ctx}, in.ParticipantID)
	if err != nil {
		return nil, out, MapError(op, err)
	}
	if p == nil {
		return nil, out, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("participant not found: %s", in.ParticipantID), nil)
	}

	var report *types.Report
	err = executeSerializedWrite(ctx, a.deps.Base, op, companyLockKey(p.CompanyID), func(dbc dbctx.Context) error {
		if _, err := a.lockCompany(dbc, op, p.CompanyID); err != nil {
			return err
		}
		r := &types.Report{
			ID:            uuid.New(),
			SurveyID:      in.SurveyID,
			ParticipantID: in.ParticipantID,
			Status:        types.ReportStatusPending,
			Total:         decimal.Zero,
		}
		if err := a.deps.Reports.Create(dbc, r); err != nil {
			return err
		}
		res, err := a.recompute(dbc, p.CompanyID)
		if err != nil {
			return err
		}
		report, out = r, res
		return nil
	})
	if err != nil {
		return nil, domainagg.RecomputeResult{}, err
	}
	return report, out, nil
}

func (a *companyAverageAggregate) RecordScores(ctx context.Context, in domainagg.RecordScoresInput) (domainagg.RecomputeResult, error) {
	op := domainagg.CompanyAverageContract.Op("RecordScores")
	var out domainagg.RecomputeResult
	if in.ReportID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing report_id", nil)
	}
	if in.Total.IsNegative() || in.Total.GreaterThan(decimal.NewFromInt(100)) {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("total out of range: %s", in.Total.StringFixed(2)), nil)
	}
	if !validGrade(in.Grade) {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown grade %q", in.Grade), nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "company average repos not configured", nil)
	}

	companyID, err := a.deps.Reports.CompanyIDOf(dbctx.Context{Ctx: ctx}, in.ReportID)
	if err != nil {
		return out, MapError(op, err)
	}
	if companyID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("report or participant not found: %s", in.ReportID), nil)
	}

	err = executeSerializedWrite(ctx, a.deps.Base, op, companyLockKey(companyID), func(dbc dbctx.Context) error {
		// Company row first: every writer takes locks in the same order.
		if _, err := a.lockCompany(dbc, op, companyID); err != nil {
			return err
		}

		rows := make([]*types.ReportQuestionGroupTotal, 0, len(in.GroupTotals))
		for _, gt := range in.GroupTotals {
			rows = append(rows, &types.ReportQuestionGroupTotal{
				ID:              uuid.New(),
				ReportID:        in.ReportID,
				QuestionGroupID: gt.QuestionGroupID,
				Total:           gt.Total,
			})
		}
		if err := a.deps.GroupTotals.Upsert(dbc, rows); err != nil {
			return err
		}

		err := a.deps.Base.reports.whileIn(dbc, in.ReportID, types.ReportStatusProcessing, map[string]any{
			"total":      in.Total,
			"grade":      in.Grade,
			"updated_at": time.Now(),
		})
		if err != nil {
			return err
		}

		res, err := a.recompute(dbc, companyID)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return domainagg.RecomputeResult{}, err
	}
	return out, nil
}

func (a *companyAverageAggregate) Recompute(ctx context.Context, companyID uuid.UUID) (domainagg.RecomputeResult, error) {
	op := domainagg.CompanyAverageContract.Op("Recompute")
	var out domainagg.RecomputeResult
	if companyID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing company_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "company average repos not configured", nil)
	}
	err := executeSerializedWrite(ctx, a.deps.Base, op, companyLockKey(companyID), func(dbc dbctx.Context) error {
		if _, err := a.lockCompany(dbc, op, companyID); err != nil {
			return err
		}
		res, err := a.recompute(dbc, companyID)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return domainagg.RecomputeResult{}, err
	}
	return out, nil
}

func (a *companyAverageAggregate) lockCompany(dbc dbctx.Context, op string, companyID uuid.UUID) (*types.Company, error) {
	c, err := a.deps.Companies.LockByID(dbc, companyID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("company not found: %s", companyID), nil)
	}
	return c, nil
}

// recompute must run under the company row lock.
func (a *companyAverageAggregate) recompute(dbc dbctx.Context, companyID uuid.UUID) (domainagg.RecomputeResult, error) {
	var statuses []string
	if a.deps.CompletedOnly {
		statuses = []string{types.ReportStatusCompleted}
	}
	totals, err := a.deps.Reports.TotalsByCompany(dbc, companyID, statuses)
	if err != nil {
		return domainagg.RecomputeResult{}, err
	}
	avg := scoring.RoundedMean(totals)
	if err := a.deps.Companies.UpdateAverage(dbc, companyID, avg); err != nil {
		return domainagg.RecomputeResult{}, err
	}
	return domainagg.RecomputeResult{
		CompanyID:    companyID,
		AverageTotal: avg,
		ReportCount:  len(totals),
	}, nil
}

func validGrade(g survey.Grade) bool {
	for _, known := range survey.Grades {
		if g == known {
			return true
		}
	}
	return false
}
