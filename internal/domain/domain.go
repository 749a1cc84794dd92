package domain

import "github.com/yungbote/surveyreport-backend/internal/domain/survey"

const (
	ReportStatusPending    = survey.ReportStatusPending
	ReportStatusProcessing = survey.ReportStatusProcessing
	ReportStatusCompleted  = survey.ReportStatusCompleted
	ReportStatusError      = survey.ReportStatusError
)

type Survey = survey.Survey
type QuestionGroup = survey.QuestionGroup
type Question = survey.Question
type QuestionOption = survey.QuestionOption
type Company = survey.Company
type Participant = survey.Participant
type Answer = survey.Answer
type Report = survey.Report
type ReportQuestionGroupTotal = survey.ReportQuestionGroupTotal
type GroupNarrative = survey.GroupNarrative
type SummaryNarrative = survey.SummaryNarrative
type Grade = survey.Grade
