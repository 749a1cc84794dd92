package survey

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Company owns participants. AverageTotal is derived from the totals of all
// reports of its participants and is only written by the company average
// aggregate.
type Company struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	AverageTotal decimal.Decimal `gorm:"column:average_total;type:numeric(6,2);not null;default:0" json:"average_total"`
	UseAverage   bool            `gorm:"column:use_average;not null;default:false" json:"use_average"`
	LogoKey      string          `gorm:"column:logo_key" json:"logo_key,omitempty"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Company) TableName() string { return "company" }

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

type Participant struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	FullName   string         `gorm:"column:full_name;not null" json:"full_name"`
	Gender     string         `gorm:"column:gender" json:"gender,omitempty"`
	BirthRange string         `gorm:"column:birth_range" json:"birth_range,omitempty"`
	Position   string         `gorm:"column:position" json:"position,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Participant) TableName() string { return "participant" }

func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Answer records one selected option for a participant.
type Answer struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ParticipantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"participant_id"`
	QuestionOptionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_option_id"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}

func (Answer) TableName() string { return "answer" }

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
