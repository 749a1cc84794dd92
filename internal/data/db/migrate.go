package db

import (
	"fmt"

	types "github.com/yungbote/surveyreport-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Survey definition
		&types.Survey{},
		&types.QuestionGroup{},
		&types.Question{},
		&types.QuestionOption{},

		// Respondents
		&types.Company{},
		&types.Participant{},
		&types.Answer{},

		// Reports
		&types.Report{},
		&types.ReportQuestionGroupTotal{},

		// Narrative lookup tables
		&types.GroupNarrative{},
		&types.SummaryNarrative{},
	)
}

// EnsureReportIndexes adds the partial index the worker claim query relies on.
func EnsureReportIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_report_pending_created ON report(created_at) WHERE status = 'pending' AND deleted_at IS NULL;`).Error; err != nil {
		return fmt.Errorf("create idx_report_pending_created: %w", err)
	}
	return nil
}
