package grading

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/domain/survey"
)

func th(min int64, v string) Threshold[string] {
	return Threshold[string]{MinScore: decimal.NewFromInt(min), Value: v}
}

func TestTableSelectHighestQualifyingFloor(t *testing.T) {
	table := NewTable([]Threshold[string]{th(80, "eighty"), th(0, "zero"), th(70, "seventy"), th(40, "forty")})

	cases := []struct {
		score string
		want  string
	}{
		{"79", "seventy"},
		{"80", "eighty"},
		{"100", "eighty"},
		{"69.99", "forty"},
		{"0", "zero"},
	}
	for _, tc := range cases {
		got, ok := table.Select(decimal.RequireFromString(tc.score))
		if !ok || got != tc.want {
			t.Fatalf("Select(%s): want=%s got=%s ok=%v", tc.score, tc.want, got, ok)
		}
	}
}

func TestTableSelectFallsBackToLowestThreshold(t *testing.T) {
	table := NewTable([]Threshold[string]{th(50, "fifty"), th(30, "thirty")})
	got, ok := table.Select(decimal.NewFromInt(10))
	if !ok || got != "thirty" {
		t.Fatalf("fallback: want=thirty got=%s ok=%v", got, ok)
	}
}

func TestTableSelectEmptyAndTies(t *testing.T) {
	if _, ok := NewTable[string](nil).Select(decimal.NewFromInt(50)); ok {
		t.Fatalf("empty table must not select")
	}
	table := NewTable([]Threshold[string]{th(60, "first"), th(60, "second")})
	if got, _ := table.Select(decimal.NewFromInt(75)); got != "first" {
		t.Fatalf("tie: want=first got=%s", got)
	}
}

func TestCatalogSelectsGroupAndSummaryNarratives(t *testing.T) {
	groupA := uuid.New()
	groupB := uuid.New()
	c := NewCatalog(
		[]*types.GroupNarrative{
			{QuestionGroupID: groupA, MinScore: decimal.NewFromInt(0), Text: "a-low"},
			{QuestionGroupID: groupA, MinScore: decimal.NewFromInt(70), Text: "a-high"},
			{QuestionGroupID: groupB, MinScore: decimal.NewFromInt(50), Text: "b-mid"},
		},
		[]*types.SummaryNarrative{
			{Category: survey.SummaryClosing, MinScore: decimal.NewFromInt(0), Title: "Cierre", Text: "closing"},
			{Category: survey.SummaryOverview, MinScore: decimal.NewFromInt(70), Title: "Resumen", Text: "overview-70"},
			{Category: survey.SummaryOverview, MinScore: decimal.NewFromInt(80), Title: "Resumen", Text: "overview-80"},
		},
	)

	if got, _ := c.GroupText(groupA, decimal.NewFromInt(71)); got != "a-high" {
		t.Fatalf("group A 71: got=%s", got)
	}
	if got, _ := c.GroupText(groupB, decimal.NewFromInt(10)); got != "b-mid" {
		t.Fatalf("group B fallback: got=%s", got)
	}
	if _, ok := c.GroupText(uuid.New(), decimal.NewFromInt(10)); ok {
		t.Fatalf("unknown group must not select")
	}

	blocks := c.Summaries(decimal.NewFromInt(79))
	if len(blocks) != 2 {
		t.Fatalf("summaries: want=2 got=%d", len(blocks))
	}
	if blocks[0].Category != survey.SummaryOverview || blocks[0].Text != "overview-70" {
		t.Fatalf("overview for 79 must use threshold 70, got=%+v", blocks[0])
	}
	if blocks[1].Category != survey.SummaryClosing {
		t.Fatalf("summary order: got=%+v", blocks)
	}
}
