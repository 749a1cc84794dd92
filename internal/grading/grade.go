package grading

import (
	"github.com/shopspring/decimal"

	"github.com/yungbote/surveyreport-backend/internal/domain/survey"
)

// Band is a half-open score interval [Min, next band's Min) mapped to a grade.
type Band struct {
	Grade survey.Grade
	Min   decimal.Decimal
	Label string
}

// Bands are ascending; the last band is closed at 100.
var Bands = []Band{
	{Grade: survey.GradeMDP, Min: decimal.NewFromInt(0), Label: "Muy debajo de lo esperado"},
	{Grade: survey.GradeDP, Min: decimal.NewFromInt(20), Label: "Debajo de lo esperado"},
	{Grade: survey.GradeP, Min: decimal.NewFromInt(40), Label: "Promedio"},
	{Grade: survey.GradeAP, Min: decimal.NewFromInt(60), Label: "Arriba del promedio"},
	{Grade: survey.GradeMEP, Min: decimal.NewFromInt(80), Label: "Muy por encima del promedio"},
}

// Classify maps an overall score to its grade. Boundary values belong to the
// higher band; scores outside [0,100] clamp to the outer bands.
func Classify(score decimal.Decimal) survey.Grade {
	grade := Bands[0].Grade
	for _, b := range Bands {
		if score.GreaterThanOrEqual(b.Min) {
			grade = b.Grade
		}
	}
	return grade
}

// BandIndex is the zero-based position of g in Bands, or -1.
func BandIndex(g survey.Grade) int {
	for i, b := range Bands {
		if b.Grade == g {
			return i
		}
	}
	return -1
}
