package scoring

import (
	"strings"

	"github.com/shopspring/decimal"
)

// GroupPercentage returns floor(user/total * 10000) / 100 using integer
// arithmetic, so 1 of 3 points yields 33.33 and never 33.34. A group with no
// achievable points scores 0.
func GroupPercentage(userPoints, totalPoints int64) decimal.Decimal {
	if totalPoints == 0 {
		return decimal.New(0, -2)
	}
	num := userPoints * 10000
	q := num / totalPoints
	if num%totalPoints != 0 && (num < 0) != (totalPoints < 0) {
		q--
	}
	return decimal.New(q, -2)
}

// RoundedMean is the arithmetic mean rounded half away from zero to two
// decimals. An empty input yields 0.
func RoundedMean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.New(0, -2)
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values)))).Round(2)
}

// OverallPolicy folds per-group percentages into the report total.
type OverallPolicy interface {
	Name() string
	Overall(groups []GroupResult) decimal.Decimal
}

const (
	PolicyUnweighted = "unweighted"
	PolicyWeighted   = "weighted"
)

// PolicyByName resolves a configured policy name; unknown names fall back to
// the unweighted mean.
func PolicyByName(name string) OverallPolicy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyWeighted, "weighted_by_survey_percentage":
		return WeightedBySurveyPercentage{}
	default:
		return UnweightedMean{}
	}
}

// UnweightedMean averages group percentages ignoring survey_percentage.
type UnweightedMean struct{}

func (UnweightedMean) Name() string { return PolicyUnweighted }

func (UnweightedMean) Overall(groups []GroupResult) decimal.Decimal {
	totals := make([]decimal.Decimal, 0, len(groups))
	for _, g := range groups {
		totals = append(totals, g.Total)
	}
	return RoundedMean(totals)
}

// WeightedBySurveyPercentage weights each group by its configured
// survey_percentage. Weights need not sum to 100; when they sum to zero the
// unweighted mean is used.
type WeightedBySurveyPercentage struct{}

func (WeightedBySurveyPercentage) Name() string { return PolicyWeighted }

func (WeightedBySurveyPercentage) Overall(groups []GroupResult) decimal.Decimal {
	weightSum := decimal.Zero
	acc := decimal.Zero
	for _, g := range groups {
		if g.Weight.IsNegative() {
			continue
		}
		weightSum = weightSum.Add(g.Weight)
		acc = acc.Add(g.Total.Mul(g.Weight))
	}
	if weightSum.IsZero() {
		return UnweightedMean{}.Overall(groups)
	}
	return acc.Div(weightSum).Round(2)
}
