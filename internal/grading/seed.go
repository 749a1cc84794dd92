package grading

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/surveyreport-backend/internal/domain/survey"
)

// Seed is the YAML narrative file format:
//
//	summaries:
//	  overview:
//	    - min_score: 0
//	      title: Resumen
//	      text: ...
//	groups:
//	  - index: 0
//	    narratives:
//	      - min_score: 70
//	        text: ...
type Seed struct {
	Summaries map[string][]SeedEntry `yaml:"summaries"`
	Groups    []SeedGroup            `yaml:"groups"`
}

type SeedGroup struct {
	Index      int         `yaml:"index"`
	Narratives []SeedEntry `yaml:"narratives"`
}

type SeedEntry struct {
	MinScore float64 `yaml:"min_score"`
	Title    string  `yaml:"title"`
	Text     string  `yaml:"text"`
}

func (e SeedEntry) Min() decimal.Decimal {
	return decimal.NewFromFloat(e.MinScore).Round(2)
}

// ParseSeed decodes and validates a narrative seed file.
func ParseSeed(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode narrative seed: %w", err)
	}
	known := map[string]bool{}
	for _, c := range survey.SummaryCategories {
		known[c] = true
	}
	for cat, entries := range s.Summaries {
		if !known[cat] {
			return nil, fmt.Errorf("unknown summary category %q", cat)
		}
		if err := validateEntries("summary "+cat, entries); err != nil {
			return nil, err
		}
	}
	seen := map[int]bool{}
	for _, g := range s.Groups {
		if g.Index < 0 {
			return nil, fmt.Errorf("group index %d must be >= 0", g.Index)
		}
		if seen[g.Index] {
			return nil, fmt.Errorf("group index %d listed twice", g.Index)
		}
		seen[g.Index] = true
		if err := validateEntries(fmt.Sprintf("group %d", g.Index), g.Narratives); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func validateEntries(where string, entries []SeedEntry) error {
	for i, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			return fmt.Errorf("%s entry %d: empty text", where, i)
		}
		if e.MinScore < 0 || e.MinScore > 100 {
			return fmt.Errorf("%s entry %d: min_score %.2f outside [0,100]", where, i, e.MinScore)
		}
	}
	return nil
}
