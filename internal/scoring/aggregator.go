package scoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

// GroupResult is one question group's score for a participant.
type GroupResult struct {
	Group       *types.QuestionGroup
	UserPoints  int64
	TotalPoints int64
	Total       decimal.Decimal
	Weight      decimal.Decimal
}

type Result struct {
	Groups  []GroupResult
	Overall decimal.Decimal
	Policy  string
}

type Aggregator interface {
	Score(ctx context.Context, surveyID, participantID uuid.UUID) (Result, error)
}

type aggregator struct {
	surveys repos.SurveyRepo
	answers repos.AnswerRepo
	policy  OverallPolicy
	log     *logger.Logger
}

func NewAggregator(surveys repos.SurveyRepo, answers repos.AnswerRepo, policy OverallPolicy, log *logger.Logger) Aggregator {
	if policy == nil {
		policy = UnweightedMean{}
	}
	return &aggregator{
		surveys: surveys,
		answers: answers,
		policy:  policy,
		log:     log.With("service", "ScoreAggregator", "policy", policy.Name()),
	}
}

// Score reads the survey's groups in index order and computes every group
// percentage plus the overall total. Missing point rows count as zero.
func (a *aggregator) Score(ctx context.Context, surveyID, participantID uuid.UUID) (Result, error) {
	dbc := dbctx.Context{Ctx: ctx}
	groups, err := a.surveys.ListGroups(dbc, surveyID)
	if err != nil {
		return Result{}, fmt.Errorf("list groups: %w", err)
	}
	maxPoints, err := a.surveys.GroupPointTotals(dbc, surveyID)
	if err != nil {
		return Result{}, fmt.Errorf("group point totals: %w", err)
	}
	userPoints, err := a.answers.PointsByGroup(dbc, participantID, surveyID)
	if err != nil {
		return Result{}, fmt.Errorf("participant points: %w", err)
	}

	out := Result{Groups: make([]GroupResult, 0, len(groups)), Policy: a.policy.Name()}
	for _, g := range groups {
		total := maxPoints[g.ID]
		user := userPoints[g.ID]
		out.Groups = append(out.Groups, GroupResult{
			Group:       g,
			UserPoints:  user,
			TotalPoints: total,
			Total:       GroupPercentage(user, total),
			Weight:      g.SurveyPercentage,
		})
	}
	out.Overall = a.policy.Overall(out.Groups)
	a.log.Debug("report scored", "survey_id", surveyID, "participant_id", participantID, "groups", len(out.Groups), "overall", out.Overall.StringFixed(2))
	return out, nil
}
