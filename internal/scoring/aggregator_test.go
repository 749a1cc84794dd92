package scoring

import (
	"context"
	"testing"

	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	"github.com/yungbote/surveyreport-backend/internal/data/repos/testutil"
)

func TestAggregatorScoresTwoGroupScenario(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	set := repos.NewSet(db, testutil.Logger(t))

	fx := testutil.SeedBinarySurvey(t, ctx, db, 10, 10)
	company := testutil.SeedCompany(t, ctx, db, "acme")
	p := testutil.SeedParticipant(t, ctx, db, company.ID, "Ana Perez")
	for q := 0; q < 10; q++ {
		testutil.SeedAnswers(t, ctx, db, p.ID, fx.Correct[0][q], fx.Wrong[1][q])
	}

	agg := NewAggregator(set.Surveys, set.Answers, UnweightedMean{}, testutil.Logger(t))
	res, err := agg.Score(ctx, fx.Survey.ID, p.ID)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(res.Groups) != 2 {
		t.Fatalf("groups: want=2 got=%d", len(res.Groups))
	}
	if got := res.Groups[0].Total.StringFixed(2); got != "100.00" {
		t.Fatalf("group A: want=100.00 got=%s", got)
	}
	if got := res.Groups[1].Total.StringFixed(2); got != "0.00" {
		t.Fatalf("group B: want=0.00 got=%s", got)
	}
	if got := res.Overall.StringFixed(2); got != "50.00" {
		t.Fatalf("overall: want=50.00 got=%s", got)
	}
}

func TestAggregatorBoundaryParticipants(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	set := repos.NewSet(db, testutil.Logger(t))

	fx := testutil.SeedBinarySurvey(t, ctx, db, 3, 5, 0)
	company := testutil.SeedCompany(t, ctx, db, "acme")
	perfect := testutil.SeedParticipant(t, ctx, db, company.ID, "Ana Perez")
	blank := testutil.SeedParticipant(t, ctx, db, company.ID, "Luis Gomez")
	for g := range fx.Correct {
		testutil.SeedAnswers(t, ctx, db, perfect.ID, fx.Correct[g]...)
	}

	agg := NewAggregator(set.Surveys, set.Answers, nil, testutil.Logger(t))

	res, err := agg.Score(ctx, fx.Survey.ID, perfect.ID)
	if err != nil {
		t.Fatalf("Score perfect: %v", err)
	}
	// The empty third group contributes 0 rather than failing.
	if got := res.Groups[2].Total.StringFixed(2); got != "0.00" {
		t.Fatalf("empty group: want=0.00 got=%s", got)
	}
	if got := res.Overall.StringFixed(2); got != "66.67" {
		t.Fatalf("perfect overall with empty group: want=66.67 got=%s", got)
	}

	res, err = agg.Score(ctx, fx.Survey.ID, blank.ID)
	if err != nil {
		t.Fatalf("Score blank: %v", err)
	}
	for i, g := range res.Groups {
		if !g.Total.IsZero() {
			t.Fatalf("blank participant group %d: want=0 got=%s", i, g.Total)
		}
	}
	if got := res.Overall.StringFixed(2); got != "0.00" {
		t.Fatalf("blank overall: want=0.00 got=%s", got)
	}
}

func TestAggregatorAllCorrectIsHundred(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	set := repos.NewSet(db, testutil.Logger(t))

	fx := testutil.SeedBinarySurvey(t, ctx, db, 4, 7, 3)
	company := testutil.SeedCompany(t, ctx, db, "acme")
	p := testutil.SeedParticipant(t, ctx, db, company.ID, "Ana Perez")
	for g := range fx.Correct {
		testutil.SeedAnswers(t, ctx, db, p.ID, fx.Correct[g]...)
	}
	res, err := NewAggregator(set.Surveys, set.Answers, nil, testutil.Logger(t)).Score(ctx, fx.Survey.ID, p.ID)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got := res.Overall.StringFixed(2); got != "100.00" {
		t.Fatalf("overall: want=100.00 got=%s", got)
	}
}
