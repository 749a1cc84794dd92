package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"gorm.io/gorm"
)

// SurveyFixture is a seeded survey where every question has one option worth
// one point and one option worth zero.
type SurveyFixture struct {
	Survey *types.Survey
	Groups []*types.QuestionGroup
	// Correct[g][q] and Wrong[g][q] are option ids for question q of group g.
	Correct [][]uuid.UUID
	Wrong   [][]uuid.UUID
}

// SeedBinarySurvey creates one group per entry of questionsPerGroup. A zero
// entry yields a group with no questions.
func SeedBinarySurvey(tb testing.TB, ctx context.Context, tx *gorm.DB, questionsPerGroup ...int) *SurveyFixture {
	tb.Helper()
	s := &types.Survey{ID: uuid.New(), Name: "survey"}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed survey: %v", err)
	}
	fx := &SurveyFixture{Survey: s}
	for gi, n := range questionsPerGroup {
		g := &types.QuestionGroup{
			ID:               uuid.New(),
			SurveyID:         s.ID,
			Index:            gi,
			Name:             fmt.Sprintf("group %d", gi+1),
			SurveyPercentage: decimal.NewFromInt(int64(100 / max(1, len(questionsPerGroup)))),
		}
		if err := tx.WithContext(ctx).Create(g).Error; err != nil {
			tb.Fatalf("seed group: %v", err)
		}
		fx.Groups = append(fx.Groups, g)
		var correct, wrong []uuid.UUID
		for qi := 0; qi < n; qi++ {
			q := &types.Question{ID: uuid.New(), QuestionGroupID: g.ID, Index: qi, Text: fmt.Sprintf("q%d", qi+1)}
			if err := tx.WithContext(ctx).Create(q).Error; err != nil {
				tb.Fatalf("seed question: %v", err)
			}
			right := &types.QuestionOption{ID: uuid.New(), QuestionID: q.ID, Index: 0, Text: "right", Points: 1}
			bad := &types.QuestionOption{ID: uuid.New(), QuestionID: q.ID, Index: 1, Text: "wrong", Points: 0}
			if err := tx.WithContext(ctx).Create([]*types.QuestionOption{right, bad}).Error; err != nil {
				tb.Fatalf("seed options: %v", err)
			}
			correct = append(correct, right.ID)
			wrong = append(wrong, bad.ID)
		}
		fx.Correct = append(fx.Correct, correct)
		fx.Wrong = append(fx.Wrong, wrong)
	}
	return fx
}

func SeedCompany(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Company {
	tb.Helper()
	c := &types.Company{ID: uuid.New(), Name: name}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed company: %v", err)
	}
	return c
}

func SeedParticipant(tb testing.TB, ctx context.Context, tx *gorm.DB, companyID uuid.UUID, fullName string) *types.Participant {
	tb.Helper()
	p := &types.Participant{
		ID:         uuid.New(),
		CompanyID:  companyID,
		FullName:   fullName,
		Gender:     "F",
		BirthRange: "1980-1989",
		Position:   "analyst",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed participant: %v", err)
	}
	return p
}

func SeedAnswers(tb testing.TB, ctx context.Context, tx *gorm.DB, participantID uuid.UUID, optionIDs ...uuid.UUID) {
	tb.Helper()
	if len(optionIDs) == 0 {
		return
	}
	rows := make([]*types.Answer, 0, len(optionIDs))
	for _, id := range optionIDs {
		rows = append(rows, &types.Answer{ID: uuid.New(), ParticipantID: participantID, QuestionOptionID: id})
	}
	if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
		tb.Fatalf("seed answers: %v", err)
	}
}

// SeedReport inserts a report directly, bypassing the company average.
func SeedReport(tb testing.TB, ctx context.Context, tx *gorm.DB, surveyID, participantID uuid.UUID, status string, total string, createdAt time.Time) *types.Report {
	tb.Helper()
	r := &types.Report{
		ID:            uuid.New(),
		SurveyID:      surveyID,
		ParticipantID: participantID,
		Status:        status,
		Total:         decimal.RequireFromString(total),
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed report: %v", err)
	}
	return r
}
