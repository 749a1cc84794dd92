package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/surveyreport-backend/internal/data/repos"
	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"github.com/yungbote/surveyreport-backend/internal/grading"
	"github.com/yungbote/surveyreport-backend/internal/platform/dbctx"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

type SeedResult struct {
	Groups    int `json:"groups"`
	GroupRows int `json:"group_rows"`
	Summaries int `json:"summaries"`
	SumRows   int `json:"summary_rows"`
}

// NarrativeSeeder loads a YAML narrative file into the narrative tables. Every
// category and group named in the file is replaced as a whole; the rest is
// left untouched.
type NarrativeSeeder interface {
	Seed(ctx context.Context, surveyID uuid.UUID, r io.Reader) (SeedResult, error)
}

type narrativeSeeder struct {
	db         *gorm.DB
	log        *logger.Logger
	surveys    repos.SurveyRepo
	narratives repos.NarrativeRepo
}

func NewNarrativeSeeder(db *gorm.DB, baseLog *logger.Logger, surveys repos.SurveyRepo, narratives repos.NarrativeRepo) NarrativeSeeder {
	return &narrativeSeeder{
		db:         db,
		log:        baseLog.With("service", "NarrativeSeeder"),
		surveys:    surveys,
		narratives: narratives,
	}
}

func (s *narrativeSeeder) Seed(ctx context.Context, surveyID uuid.UUID, r io.Reader) (SeedResult, error) {
	var out SeedResult
	seed, err := grading.ParseSeed(r)
	if err != nil {
		return out, err
	}

	byIndex := map[int]uuid.UUID{}
	if len(seed.Groups) > 0 {
		if surveyID == uuid.Nil {
			return out, fmt.Errorf("group narratives need a survey id")
		}
		groups, err := s.surveys.ListGroups(dbctx.Context{Ctx: ctx}, surveyID)
		if err != nil {
			return out, fmt.Errorf("list groups: %w", err)
		}
		for _, g := range groups {
			byIndex[g.Index] = g.ID
		}
		for _, g := range seed.Groups {
			if _, ok := byIndex[g.Index]; !ok {
				return out, fmt.Errorf("survey %s has no question group with index %d", surveyID, g.Index)
			}
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, g := range seed.Groups {
			rows := make([]*types.GroupNarrative, 0, len(g.Narratives))
			for _, e := range g.Narratives {
				rows = append(rows, &types.GroupNarrative{ID: uuid.New(), MinScore: e.Min(), Text: e.Text})
			}
			if err := s.narratives.ReplaceGroupNarratives(dbc, byIndex[g.Index], rows); err != nil {
				return fmt.Errorf("group %d: %w", g.Index, err)
			}
			out.Groups++
			out.GroupRows += len(rows)
		}
		for category, entries := range seed.Summaries {
			rows := make([]*types.SummaryNarrative, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, &types.SummaryNarrative{ID: uuid.New(), Category: category, MinScore: e.Min(), Title: e.Title, Text: e.Text})
			}
			if err := s.narratives.ReplaceSummaryNarratives(dbc, category, rows); err != nil {
				return fmt.Errorf("summary %s: %w", category, err)
			}
			out.Summaries++
			out.SumRows += len(rows)
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	s.log.Info("Narratives seeded", "survey_id", surveyID, "groups", out.Groups, "group_rows", out.GroupRows, "summaries", out.Summaries, "summary_rows", out.SumRows)
	return out, nil
}
