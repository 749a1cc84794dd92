package survey

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SummaryOverview        = "overview"
	SummaryStrengths       = "strengths"
	SummaryOpportunities   = "opportunities"
	SummaryRecommendations = "recommendations"
	SummaryDevelopment     = "development"
	SummaryClosing         = "closing"
)

// SummaryCategories is the fixed order of the summary blocks in a report.
var SummaryCategories = []string{
	SummaryOverview,
	SummaryStrengths,
	SummaryOpportunities,
	SummaryRecommendations,
	SummaryDevelopment,
	SummaryClosing,
}

// GroupNarrative is the paragraph shown on a group page when the group score
// is at least MinScore.
type GroupNarrative struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionGroupID uuid.UUID       `gorm:"type:uuid;not null;index" json:"question_group_id"`
	MinScore        decimal.Decimal `gorm:"column:min_score;type:numeric(6,2);not null;default:0" json:"min_score"`
	Text            string          `gorm:"column:text;type:text;not null" json:"text"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
}

func (GroupNarrative) TableName() string { return "group_narrative" }

func (n *GroupNarrative) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

// SummaryNarrative is a titled block on the summary pages keyed by the
// overall score.
type SummaryNarrative struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Category  string          `gorm:"column:category;not null;index" json:"category"`
	MinScore  decimal.Decimal `gorm:"column:min_score;type:numeric(6,2);not null;default:0" json:"min_score"`
	Title     string          `gorm:"column:title" json:"title,omitempty"`
	Text      string          `gorm:"column:text;type:text;not null" json:"text"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

func (SummaryNarrative) TableName() string { return "summary_narrative" }

func (n *SummaryNarrative) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
