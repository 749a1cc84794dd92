package aggregates

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/surveyreport-backend/internal/domain/survey"
)

// GroupScore is the truncated percentage for one question group.
type GroupScore struct {
	QuestionGroupID uuid.UUID
	Total           decimal.Decimal
}

type CreateReportInput struct {
	SurveyID      uuid.UUID
	ParticipantID uuid.UUID
}

type RecordScoresInput struct {
	ReportID    uuid.UUID
	Total       decimal.Decimal
	Grade       survey.Grade
	GroupTotals []GroupScore
}

type RecomputeResult struct {
	CompanyID    uuid.UUID
	AverageTotal decimal.Decimal
	ReportCount  int
}

// CompanyAverageAggregate owns every write that can move a company's
// average_total. Each method recomputes the average inside the same
// transaction as the report write, serialized per company.
type CompanyAverageAggregate interface {
	Aggregate
	CreateReport(ctx context.Context, in CreateReportInput) (*survey.Report, RecomputeResult, error)
	RecordScores(ctx context.Context, in RecordScoresInput) (RecomputeResult, error)
	Recompute(ctx context.Context, companyID uuid.UUID) (RecomputeResult, error)
}

var CompanyAverageContract = Contract{
	Name:      "Survey.CompanyAverage",
	LockScope: "company",
	Invariants: []string{
		"company.average_total is recomputed in the transaction that changes a report total",
		"report totals are written only while the report is processing",
	},
}
