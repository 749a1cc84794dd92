package survey

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Survey struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	QuestionGroups []QuestionGroup `gorm:"foreignKey:SurveyID" json:"question_groups,omitempty"`
}

func (Survey) TableName() string { return "survey" }

func (s *Survey) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// QuestionGroup is one scored section of a survey. SurveyPercentage is the
// configured weight; it only matters under the weighted overall policy.
type QuestionGroup struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SurveyID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"survey_id"`
	Index            int             `gorm:"column:idx;not null;default:0;index" json:"index"`
	Name             string          `gorm:"column:name;not null" json:"name"`
	Description      string          `gorm:"column:description" json:"description,omitempty"`
	SurveyPercentage decimal.Decimal `gorm:"column:survey_percentage;type:numeric(6,2);not null;default:0" json:"survey_percentage"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`

	Questions []Question `gorm:"foreignKey:QuestionGroupID" json:"questions,omitempty"`
}

func (QuestionGroup) TableName() string { return "question_group" }

func (g *QuestionGroup) BeforeCreate(tx *gorm.DB) error {
	ensureID(&g.ID)
	return nil
}

type Question struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionGroupID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_group_id"`
	Index           int       `gorm:"column:idx;not null;default:0" json:"index"`
	Text            string    `gorm:"column:text;not null" json:"text"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`

	Options []QuestionOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

// QuestionOption carries the points awarded when a participant selects it.
// Points are commonly 0 or 1 but any integer is allowed.
type QuestionOption struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Index      int       `gorm:"column:idx;not null;default:0" json:"index"`
	Text       string    `gorm:"column:text;not null" json:"text"`
	Points     int       `gorm:"column:points;not null;default:0" json:"points"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (QuestionOption) TableName() string { return "question_option" }

func (o *QuestionOption) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
