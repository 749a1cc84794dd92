package survey

import (
	"context"
	"testing"

	"github.com/yungbote/surveyreport-backend/internal/data/repos/testutil"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
)

func TestSurveyAndAnswerPointTotals(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	fx := testutil.SeedBinarySurvey(t, ctx, tx, 3, 4, 0)
	company := testutil.SeedCompany(t, ctx, tx, "acme")
	p := testutil.SeedParticipant(t, ctx, tx, company.ID, "Ana Perez")
	testutil.SeedAnswers(t, ctx, tx, p.ID,
		fx.Correct[0][0], fx.Wrong[0][1], fx.Correct[0][2],
		fx.Wrong[1][0],
	)

	surveys := NewSurveyRepo(db, testutil.Logger(t))
	answers := NewAnswerRepo(db, testutil.Logger(t))

	groups, err := surveys.ListGroups(dbc, fx.Survey.ID)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("ListGroups: want=3 got=%d", len(groups))
	}
	for i, g := range groups {
		if g.ID != fx.Groups[i].ID {
			t.Fatalf("ListGroups order: index %d want=%s got=%s", i, fx.Groups[i].ID, g.ID)
		}
	}

	totals, err := surveys.GroupPointTotals(dbc, fx.Survey.ID)
	if err != nil {
		t.Fatalf("GroupPointTotals: %v", err)
	}
	if got := totals[fx.Groups[0].ID]; got != 3 {
		t.Fatalf("group 1 total points: want=3 got=%d", got)
	}
	if got := totals[fx.Groups[1].ID]; got != 4 {
		t.Fatalf("group 2 total points: want=4 got=%d", got)
	}
	if _, ok := totals[fx.Groups[2].ID]; ok {
		t.Fatalf("empty group should be absent from totals")
	}

	points, err := answers.PointsByGroup(dbc, p.ID, fx.Survey.ID)
	if err != nil {
		t.Fatalf("PointsByGroup: %v", err)
	}
	if got := points[fx.Groups[0].ID]; got != 2 {
		t.Fatalf("group 1 user points: want=2 got=%d", got)
	}
	if got := points[fx.Groups[1].ID]; got != 0 {
		t.Fatalf("group 2 user points: want=0 got=%d", got)
	}
}

func TestPointsByGroupIgnoresOtherSurveys(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	a := testutil.SeedBinarySurvey(t, ctx, tx, 2)
	b := testutil.SeedBinarySurvey(t, ctx, tx, 2)
	company := testutil.SeedCompany(t, ctx, tx, "acme")
	p := testutil.SeedParticipant(t, ctx, tx, company.ID, "Luis Gomez")
	testutil.SeedAnswers(t, ctx, tx, p.ID, a.Correct[0][0], b.Correct[0][0], b.Correct[0][1])

	points, err := NewAnswerRepo(db, testutil.Logger(t)).PointsByGroup(dbc, p.ID, a.Survey.ID)
	if err != nil {
		t.Fatalf("PointsByGroup: %v", err)
	}
	if len(points) != 1 || points[a.Groups[0].ID] != 1 {
		t.Fatalf("PointsByGroup: want only survey a points=1, got=%v", points)
	}
}
