package survey

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type NarrativeRepo interface {
	ListGroupNarratives(dbc dbctx.Context, groupIDs []uuid.UUID) ([]*types.GroupNarrative, error)
	ListSummaryNarratives(dbc dbctx.Context) ([]*types.SummaryNarrative, error)
	ReplaceGroupNarratives(dbc dbctx.Context, groupID uuid.UUID, rows []*types.GroupNarrative) error
	ReplaceSummaryNarratives(dbc dbctx.Context, category string, rows []*types.SummaryNarrative) error
}

type narrativeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNarrativeRepo(db *gorm.DB, baseLog *logger.Logger) NarrativeRepo {
	return &narrativeRepo{
		db:  db,
		log: baseLog.With("repo", "NarrativeRepo"),
	}
}

func (r *narrativeRepo) ListGroupNarratives(dbc dbctx.Context, groupIDs []uuid.UUID) ([]*types.GroupNarrative, error) {
	var out []*types.GroupNarrative
	if len(groupIDs) == 0 {
		return out, nil
	}
	err := dbc.Pick(r.db).
		Where("question_group_id IN ?", groupIDs).
		Order("min_score ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *narrativeRepo) ListSummaryNarratives(dbc dbctx.Context) ([]*types.SummaryNarrative, error) {
	var out []*types.SummaryNarrative
	err := dbc.Pick(r.db).
		Order("category ASC").
		Order("min_score ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceGroupNarratives swaps the whole threshold table of one group.
// Callers wanting atomicity pass a transaction.
func (r *narrativeRepo) ReplaceGroupNarratives(dbc dbctx.Context, groupID uuid.UUID, rows []*types.GroupNarrative) error {
	if groupID == uuid.Nil {
		return nil
	}
	db := dbc.Pick(r.db)
	if err := db.Where("question_group_id = ?", groupID).Delete(&types.GroupNarrative{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		row.QuestionGroupID = groupID
	}
	return db.Create(&rows).Error
}

func (r *narrativeRepo) ReplaceSummaryNarratives(dbc dbctx.Context, category string, rows []*types.SummaryNarrative) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil
	}
	db := dbc.Pick(r.db)
	if err := db.Where("category = ?", category).Delete(&types.SummaryNarrative{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		row.Category = category
	}
	return db.Create(&rows).Error
}
