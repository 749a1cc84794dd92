package grading

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/domain/survey"
)

// SummaryBlock is a titled paragraph for the summary pages.
type SummaryBlock struct {
	Category string
	Title    string
	Text     string
}

// Catalog holds the narrative lookup tables for one report run.
type Catalog struct {
	groups    map[uuid.UUID]Table[string]
	summaries map[string]Table[SummaryBlock]
}

func NewCatalog(groupRows []*types.GroupNarrative, summaryRows []*types.SummaryNarrative) *Catalog {
	byGroup := map[uuid.UUID][]Threshold[string]{}
	for _, r := range groupRows {
		if r == nil {
			continue
		}
		byGroup[r.QuestionGroupID] = append(byGroup[r.QuestionGroupID], Threshold[string]{MinScore: r.MinScore, Value: r.Text})
	}
	byCategory := map[string][]Threshold[SummaryBlock]{}
	for _, r := range summaryRows {
		if r == nil {
			continue
		}
		byCategory[r.Category] = append(byCategory[r.Category], Threshold[SummaryBlock]{
			MinScore: r.MinScore,
			Value:    SummaryBlock{Category: r.Category, Title: r.Title, Text: r.Text},
		})
	}

	c := &Catalog{
		groups:    make(map[uuid.UUID]Table[string], len(byGroup)),
		summaries: make(map[string]Table[SummaryBlock], len(byCategory)),
	}
	for id, rows := range byGroup {
		c.groups[id] = NewTable(rows)
	}
	for cat, rows := range byCategory {
		c.summaries[cat] = NewTable(rows)
	}
	return c
}

// GroupText selects the narrative for a group score.
func (c *Catalog) GroupText(groupID uuid.UUID, score decimal.Decimal) (string, bool) {
	return c.groups[groupID].Select(score)
}

// Summary selects one category's block for the overall score.
func (c *Catalog) Summary(category string, score decimal.Decimal) (SummaryBlock, bool) {
	return c.summaries[category].Select(score)
}

// Summaries returns the blocks for the overall score in the fixed category
// order, skipping categories without any rows.
func (c *Catalog) Summaries(overall decimal.Decimal) []SummaryBlock {
	out := make([]SummaryBlock, 0, len(survey.SummaryCategories))
	for _, cat := range survey.SummaryCategories {
		if b, ok := c.Summary(cat, overall); ok {
			out = append(out, b)
		}
	}
	return out
}
