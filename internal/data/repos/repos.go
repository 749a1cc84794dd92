package repos

import (
	"github.com/yungbote/surveyreport-backend/internal/data/repos/org"
	"github.com/yungbote/surveyreport-backend/internal/data/repos/reports"
	"github.com/yungbote/surveyreport-backend/internal/data/repos/survey"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type SurveyRepo = survey.SurveyRepo
type AnswerRepo = survey.AnswerRepo
type NarrativeRepo = survey.NarrativeRepo

type CompanyRepo = org.CompanyRepo
type ParticipantRepo = org.ParticipantRepo

type ReportRepo = reports.ReportRepo
type GroupTotalRepo = reports.GroupTotalRepo
type GroupStat = reports.GroupStat

// Set is the full repository bundle wired once at startup.
type Set struct {
	Surveys      SurveyRepo
	Answers      AnswerRepo
	Narratives   NarrativeRepo
	Companies    CompanyRepo
	Participants ParticipantRepo
	Reports      ReportRepo
	GroupTotals  GroupTotalRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Surveys:      survey.NewSurveyRepo(db, log),
		Answers:      survey.NewAnswerRepo(db, log),
		Narratives:   survey.NewNarrativeRepo(db, log),
		Companies:    org.NewCompanyRepo(db, log),
		Participants: org.NewParticipantRepo(db, log),
		Reports:      reports.NewReportRepo(db, log),
		GroupTotals:  reports.NewGroupTotalRepo(db, log),
	}
}
