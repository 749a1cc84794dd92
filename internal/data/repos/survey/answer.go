package survey

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type AnswerRepo interface {
	Create(dbc dbctx.Context, answers []*types.Answer) ([]*types.Answer, error)
	// PointsByGroup sums the points of the options a participant selected,
	// per question group of the survey. Groups without answers are absent.
	PointsByGroup(dbc dbctx.Context, participantID, surveyID uuid.UUID) (map[uuid.UUID]int64, error)
}

type answerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
	return &answerRepo{
		db:  db,
		log: baseLog.With("repo", "AnswerRepo"),
	}
}

func (r *answerRepo) Create(dbc dbctx.Context, answers []*types.Answer) ([]*types.Answer, error) {
	if len(answers) == 0 {
		return []*types.Answer{}, nil
	}
	if err := dbc.Pick(r.db).Create(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) PointsByGroup(dbc dbctx.Context, participantID, surveyID uuid.UUID) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	if participantID == uuid.Nil || surveyID == uuid.Nil {
		return out, nil
	}
	var rows []groupPoints
	err := dbc.Pick(r.db).
		Table("answer AS a").
		Select("q.question_group_id AS question_group_id, COALESCE(SUM(o.points), 0) AS points").
		Joins("JOIN question_option AS o ON o.id = a.question_option_id").
		Joins("JOIN question AS q ON q.id = o.question_id").
		Joins("JOIN question_group AS g ON g.id = q.question_group_id").
		Where("a.participant_id = ? AND g.survey_id = ?", participantID, surveyID).
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
