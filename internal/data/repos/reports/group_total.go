package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

// GroupStat summarizes one question group's totals across a company's reports.
type GroupStat struct {
	QuestionGroupID uuid.UUID
	AvgTotal        decimal.Decimal
	MinTotal        decimal.Decimal
	MaxTotal        decimal.Decimal
	N               int64
}

type GroupTotalRepo interface {
	// Upsert writes one row per (report, group), overwriting existing totals.
	Upsert(dbc dbctx.Context, rows []*types.ReportQuestionGroupTotal) error
	ListByReport(dbc dbctx.Context, reportID uuid.UUID) ([]*types.ReportQuestionGroupTotal, error)
	StatsByCompany(dbc dbctx.Context, companyID uuid.UUID) (map[uuid.UUID]GroupStat, error)
}

type groupTotalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGroupTotalRepo(db *gorm.DB, baseLog *logger.Logger) GroupTotalRepo {
	return &groupTotalRepo{
		db:  db,
		log: baseLog.With("repo", "GroupTotalRepo"),
	}
}

func (r *groupTotalRepo) Upsert(dbc dbctx.Context, rows []*types.ReportQuestionGroupTotal) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now()
	for _, row := range rows {
		row.UpdatedAt = now
	}
	return dbc.Pick(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "report_id"}, {Name: "question_group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *groupTotalRepo) ListByReport(dbc dbctx.Context, reportID uuid.UUID) ([]*types.ReportQuestionGroupTotal, error) {
	var out []*types.ReportQuestionGroupTotal
	if reportID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Pick(r.db).Where("report_id = ?", reportID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *groupTotalRepo) StatsByCompany(dbc dbctx.Context, companyID uuid.UUID) (map[uuid.UUID]GroupStat, error) {
	out := map[uuid.UUID]GroupStat{}
	if companyID == uuid.Nil {
		return out, nil
	}
	var rows []GroupStat
	err := dbc.Pick(r.db).
		Table("report_question_group_total AS t").
		Select(`t.question_group_id AS question_group_id,
			AVG(t.total) AS avg_total,
			MIN(t.total) AS min_total,
			MAX(t.total) AS max_total,
			COUNT(*) AS n`).
		Joins("JOIN report AS r ON r.id = t.report_id").
		Joins("JOIN participant AS p ON p.id = r.participant_id").
		Where("p.company_id = ? AND r.deleted_at IS NULL", companyID).
		Group("t.question_group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		row.AvgTotal = row.AvgTotal.Round(2)
		out[row.QuestionGroupID] = row
	}
	return out, nil
}
