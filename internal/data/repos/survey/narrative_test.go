package survey

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/surveyreport-backend/internal/data/repos/testutil"
	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
)

// Rows seeded in one batch share min_score and created_at; id settles the order.
func TestNarrativesTieBreakOnID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	fx := testutil.SeedBinarySurvey(t, ctx, tx, 1)
	groupID := fx.Groups[0].ID
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	low := uuid.MustParse("00000000-0000-4000-8000-000000000001")
	high := uuid.MustParse("ffffffff-0000-4000-8000-000000000001")

	group := []*types.GroupNarrative{
		{ID: high, QuestionGroupID: groupID, MinScore: decimal.NewFromInt(40), Text: "second", CreatedAt: at},
		{ID: low, QuestionGroupID: groupID, MinScore: decimal.NewFromInt(40), Text: "first", CreatedAt: at},
	}
	if err := tx.Create(&group).Error; err != nil {
		t.Fatalf("seed group narratives: %v", err)
	}
	summary := []*types.SummaryNarrative{
		{ID: high, Category: "tie", MinScore: decimal.NewFromInt(0), Text: "second", CreatedAt: at},
		{ID: low, Category: "tie", MinScore: decimal.NewFromInt(0), Text: "first", CreatedAt: at},
	}
	if err := tx.Create(&summary).Error; err != nil {
		t.Fatalf("seed summary narratives: %v", err)
	}

	repo := NewNarrativeRepo(db, testutil.Logger(t))
	gotGroup, err := repo.ListGroupNarratives(dbc, []uuid.UUID{groupID})
	if err != nil {
		t.Fatalf("ListGroupNarratives: %v", err)
	}
	if len(gotGroup) != 2 || gotGroup[0].ID != low || gotGroup[1].ID != high {
		t.Fatalf("ListGroupNarratives order: want=[%s %s] got=%v", low, high, narrativeIDs(gotGroup))
	}

	gotSummary, err := repo.ListSummaryNarratives(dbc)
	if err != nil {
		t.Fatalf("ListSummaryNarratives: %v", err)
	}
	var tie []uuid.UUID
	for _, n := range gotSummary {
		if n.Category == "tie" {
			tie = append(tie, n.ID)
		}
	}
	if len(tie) != 2 || tie[0] != low || tie[1] != high {
		t.Fatalf("ListSummaryNarratives order: want=[%s %s] got=%v", low, high, tie)
	}
}

func narrativeIDs(rows []*types.GroupNarrative) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
