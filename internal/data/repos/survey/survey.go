package survey

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type SurveyRepo interface {
	Create(dbc dbctx.Context, s *types.Survey) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Survey, error)
	ListGroups(dbc dbctx.Context, surveyID uuid.UUID) ([]*types.QuestionGroup, error)
	// GroupPointTotals returns the maximum achievable points per question
	// group. Groups without options are absent from the map.
	GroupPointTotals(dbc dbctx.Context, surveyID uuid.UUID) (map[uuid.UUID]int64, error)
}

type surveyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSurveyRepo(db *gorm.DB, baseLog *logger.Logger) SurveyRepo {
	return &surveyRepo{
		db:  db,
		log: baseLog.With("repo", "SurveyRepo"),
	}
}

// Create inserts the survey together with any nested groups, questions and options.
func (r *surveyRepo) Create(dbc dbctx.Context, s *types.Survey) error {
	if s == nil {
		return nil
	}
	return dbc.Pick(r.db).Create(s).Error
}

func (r *surveyRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Survey, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var s types.Survey
	err := dbc.Pick(r.db).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *surveyRepo) ListGroups(dbc dbctx.Context, surveyID uuid.UUID) ([]*types.QuestionGroup, error) {
	var out []*types.QuestionGroup
	if surveyID == uuid.Nil {
		return out, nil
	}
	err := dbc.Pick(r.db).
		Where("survey_id = ?", surveyID).
		Order("idx ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type groupPoints struct {
	QuestionGroupID uuid.UUID
	Points          int64
}

func (r *surveyRepo) GroupPointTotals(dbc dbctx.Context, surveyID uuid.UUID) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	if surveyID == uuid.Nil {
		return out, nil
	}
	var rows []groupPoints
	err := dbc.Pick(r.db).
		Table("question_option AS o").
		Select("q.question_group_id AS question_group_id, COALESCE(SUM(o.points), 0) AS points").
		Joins("JOIN question AS q ON q.id = o.question_id").
		Joins("JOIN question_group AS g ON g.id = q.question_group_id").
		Where("g.survey_id = ?", surveyID).
		Group("q.question_group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.QuestionGroupID] = row.Points
	}
	return out, nil
}
