package org

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type ParticipantRepo interface {
	Create(dbc dbctx.Context, p *types.Participant) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Participant, error)
}

type participantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParticipantRepo(db *gorm.DB, baseLog *logger.Logger) ParticipantRepo {
	return &participantRepo{
		db:  db,
		log: baseLog.With("repo", "ParticipantRepo"),
	}
}

func (r *participantRepo) Create(dbc dbctx.Context, p *types.Participant) error {
	if p == nil {
		return nil
	}
	return dbc.Pick(r.db).Create(p).Error
}

func (r *participantRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Participant, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var p types.Participant
	err := dbc.Pick(r.db).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
