package survey

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ReportStatusPending    = "pending"
	ReportStatusProcessing = "processing"
	ReportStatusCompleted  = "completed"
	ReportStatusError      = "error"
)

type Grade string

const (
	GradeMDP Grade = "MDP"
	GradeDP  Grade = "DP"
	GradeP   Grade = "P"
	GradeAP  Grade = "AP"
	GradeMEP Grade = "MEP"
)

// Grades lists the bands in ascending order.
var Grades = []Grade{GradeMDP, GradeDP, GradeP, GradeAP, GradeMEP}

// Report is one participant's scored survey. ArtifactKey is set exactly when
// Status is completed.
type Report struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SurveyID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"survey_id"`
	ParticipantID uuid.UUID       `gorm:"type:uuid;not null;index" json:"participant_id"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(6,2);not null;default:0" json:"total"`
	Grade         Grade           `gorm:"column:grade" json:"grade,omitempty"`
	Status        string          `gorm:"column:status;not null;index" json:"status"`
	ArtifactKey   *string         `gorm:"column:artifact_key" json:"artifact_key,omitempty"`
	Log           string          `gorm:"column:log;type:text" json:"log,omitempty"`
	// LastFailure is the structured form of the most recent failed run; it is
	// cleared when the report completes.
	LastFailure datatypes.JSON `gorm:"column:last_failure;type:jsonb" json:"last_failure,omitempty"`
	Attempts    int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	ClaimedAt   *time.Time     `gorm:"column:claimed_at;index" json:"claimed_at,omitempty"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	GroupTotals []ReportQuestionGroupTotal `gorm:"foreignKey:ReportID" json:"group_totals,omitempty"`
}

func (Report) TableName() string { return "report" }

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = ReportStatusPending
	}
	return nil
}

// ReportQuestionGroupTotal is the truncated percentage a report earned in one
// question group. (report_id, question_group_id) is unique.
type ReportQuestionGroupTotal struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ReportID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_report_group_total" json:"report_id"`
	QuestionGroupID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_report_group_total;index" json:"question_group_id"`
	Total           decimal.Decimal `gorm:"column:total;type:numeric(6,2);not null;default:0" json:"total"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

func (ReportQuestionGroupTotal) TableName() string { return "report_question_group_total" }

func (t *ReportQuestionGroupTotal) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
