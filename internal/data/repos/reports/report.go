package reports

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type ReportRepo interface {
	Create(dbc dbctx.Context, report *types.Report) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Report, error)
	// ClaimNextPending moves the oldest pending report to processing and
	// returns it. Concurrent callers never receive the same report; nil means
	// nothing was pending.
	ClaimNextPending(dbc dbctx.Context) (*types.Report, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// UpdateFieldsIfStatus applies updates only while the report is in one of
	// the allowed statuses and reports whether a row changed.
	UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, allowedStatuses []string, updates map[string]interface{}) (bool, error)
	AppendLog(dbc dbctx.Context, id uuid.UUID, line string) error
	CompanyIDOf(dbc dbctx.Context, id uuid.UUID) (uuid.UUID, error)
	// TotalsByCompany lists report totals across the company's participants,
	// optionally restricted to the given statuses.
	TotalsByCompany(dbc dbctx.Context, companyID uuid.UUID, statuses []string) ([]decimal.Decimal, error)
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	return &reportRepo{
		db:  db,
		log: baseLog.With("repo", "ReportRepo"),
	}
}

func (r *reportRepo) Create(dbc dbctx.Context, report *types.Report) error {
	if report == nil {
		return nil
	}
	return dbc.Pick(r.db).Create(report).Error
}

func (r *reportRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Report, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var report types.Report
	err := dbc.Pick(r.db).
		Preload("GroupTotals").
		Where("id = ?", id).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) ClaimNextPending(dbc dbctx.Context) (*types.Report, error) {
	now := time.Now()
	var claimed *types.Report
	err := dbc.Pick(r.db).Transaction(func(txx *gorm.DB) error {
		var report types.Report
		qErr := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", types.ReportStatusPending).
			Order("created_at ASC").
			Order("id ASC").
			First(&report).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		// The status guard keeps the claim exclusive where SKIP LOCKED is unavailable.
		res := txx.Model(&types.Report{}).
			Where("id = ? AND status = ?", report.ID, types.ReportStatusPending).
			Updates(map[string]interface{}{
				"status":     types.ReportStatusProcessing,
				"attempts":   gorm.Expr("attempts + 1"),
				"claimed_at": now,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		report.Status = types.ReportStatusProcessing
		report.Attempts++
		report.ClaimedAt = &now
		claimed = &report
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *reportRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return dbc.Pick(r.db).
		Model(&types.Report{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *reportRepo) UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, allowedStatuses []string, updates map[string]interface{}) (bool, error) {
	if id == uuid.Nil || len(allowedStatuses) == 0 {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	res := dbc.Pick(r.db).
		Model(&types.Report{}).
		Where("id = ? AND status IN ?", id, allowedStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reportRepo) AppendLog(dbc dbctx.Context, id uuid.UUID, line string) error {
	line = strings.TrimRight(line, "\n")
	if id == uuid.Nil || line == "" {
		return nil
	}
	stamped := time.Now().UTC().Format(time.RFC3339) + " " + line + "\n"
	return dbc.Pick(r.db).
		Model(&types.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"log":        gorm.Expr("COALESCE(log, '') || ?", stamped),
			"updated_at": time.Now(),
		}).Error
}

func (r *reportRepo) CompanyIDOf(dbc dbctx.Context, id uuid.UUID) (uuid.UUID, error) {
	if id == uuid.Nil {
		return uuid.Nil, nil
	}
	var ids []uuid.UUID
	err := dbc.Pick(r.db).
		Table("report AS r").
		Joins("JOIN participant AS p ON p.id = r.participant_id").
		Where("r.id = ?", id).
		Limit(1).
		Pluck("p.company_id", &ids).Error
	if err != nil {
		return uuid.Nil, err
	}
	if len(ids) == 0 {
		return uuid.Nil, nil
	}
	return ids[0], nil
}

func (r *reportRepo) TotalsByCompany(dbc dbctx.Context, companyID uuid.UUID, statuses []string) ([]decimal.Decimal, error) {
	out := []decimal.Decimal{}
	if companyID == uuid.Nil {
		return out, nil
	}
	q := dbc.Pick(r.db).
		Table("report AS r").
		Joins("JOIN participant AS p ON p.id = r.participant_id").
		Where("p.company_id = ? AND r.deleted_at IS NULL", companyID)
	if len(statuses) > 0 {
		q = q.Where("r.status IN ?", statuses)
	}
	if err := q.Order("r.created_at ASC").Pluck("r.total", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type statusCount struct {
	Status string
	N      int64
}

func (r *reportRepo) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	var rows []statusCount
	err := dbc.Pick(r.db).
		Model(&types.Report{}).
		Select("status AS status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
