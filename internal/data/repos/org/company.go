package org

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type CompanyRepo interface {
	Create(dbc dbctx.Context, c *types.Company) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Company, error)
	GetByParticipantID(dbc dbctx.Context, participantID uuid.UUID) (*types.Company, error)
	// LockByID reads the company row with SELECT ... FOR UPDATE. It must run
	// inside a transaction; on sqlite the locking clause is dropped.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Company, error)
	UpdateAverage(dbc dbctx.Context, id uuid.UUID, avg decimal.Decimal) error
}

type companyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompanyRepo(db *gorm.DB, baseLog *logger.Logger) CompanyRepo {
	return &companyRepo{
		db:  db,
		log: baseLog.With("repo", "CompanyRepo"),
	}
}

func (r *companyRepo) Create(dbc dbctx.Context, c *types.Company) error {
	if c == nil {
		return nil
	}
	return dbc.Pick(r.db).Create(c).Error
}

func (r *companyRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Company, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.Company
	err := dbc.Pick(r.db).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *companyRepo) GetByParticipantID(dbc dbctx.Context, participantID uuid.UUID) (*types.Company, error) {
	if participantID == uuid.Nil {
		return nil, nil
	}
	var c types.Company
	err := dbc.Pick(r.db).
		Joins("JOIN participant ON participant.company_id = company.id").
		Where("participant.id = ?", participantID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *companyRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Company, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.Company
	err := dbc.Pick(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *companyRepo) UpdateAverage(dbc dbctx.Context, id uuid.UUID, avg decimal.Decimal) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.Pick(r.db).
		Model(&types.Company{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_total": avg,
			"updated_at":    time.Now(),
		}).Error
}
