package scoring

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestGroupPercentageTruncates(t *testing.T) {
	cases := []struct {
		user, total int64
		want        string
	}{
		{1, 3, "33.33"},
		{2, 3, "66.66"},
		{1, 7, "14.28"},
		{10, 10, "100.00"},
		{0, 10, "0.00"},
		{0, 0, "0.00"},
		{5, 0, "0.00"},
		{3, 8, "37.50"},
	}
	for _, tc := range cases {
		got := GroupPercentage(tc.user, tc.total)
		if got.StringFixed(2) != tc.want {
			t.Fatalf("GroupPercentage(%d,%d): want=%s got=%s", tc.user, tc.total, tc.want, got.StringFixed(2))
		}
	}
}

func TestRoundedMeanRounds(t *testing.T) {
	vals := func(ss ...string) []decimal.Decimal {
		out := make([]decimal.Decimal, 0, len(ss))
		for _, s := range ss {
			out = append(out, decimal.RequireFromString(s))
		}
		return out
	}
	cases := []struct {
		in   []decimal.Decimal
		want string
	}{
		{nil, "0.00"},
		{vals("100", "0"), "50.00"},
		{vals("33.33", "33.34", "33.34"), "33.34"},
		{vals("10.00", "10.01"), "10.01"},
		{vals("66.66", "66.66", "66.67"), "66.66"},
	}
	for _, tc := range cases {
		got := RoundedMean(tc.in)
		if got.StringFixed(2) != tc.want {
			t.Fatalf("RoundedMean(%v): want=%s got=%s", tc.in, tc.want, got.StringFixed(2))
		}
	}
}

func TestOverallPolicies(t *testing.T) {
	groups := []GroupResult{
		{Total: decimal.NewFromInt(100), Weight: decimal.NewFromInt(75)},
		{Total: decimal.Zero, Weight: decimal.NewFromInt(25)},
	}
	if got := (UnweightedMean{}).Overall(groups); got.StringFixed(2) != "50.00" {
		t.Fatalf("unweighted: want=50.00 got=%s", got.StringFixed(2))
	}
	if got := (WeightedBySurveyPercentage{}).Overall(groups); got.StringFixed(2) != "75.00" {
		t.Fatalf("weighted: want=75.00 got=%s", got.StringFixed(2))
	}

	unweightedGroups := []GroupResult{{Total: decimal.NewFromInt(40)}, {Total: decimal.NewFromInt(60)}}
	if got := (WeightedBySurveyPercentage{}).Overall(unweightedGroups); got.StringFixed(2) != "50.00" {
		t.Fatalf("weighted with zero weights falls back: want=50.00 got=%s", got.StringFixed(2))
	}
	if got := (UnweightedMean{}).Overall(nil); got.StringFixed(2) != "0.00" {
		t.Fatalf("no groups: want=0.00 got=%s", got.StringFixed(2))
	}

	if PolicyByName("weighted").Name() != PolicyWeighted {
		t.Fatalf("PolicyByName weighted")
	}
	if PolicyByName("").Name() != PolicyUnweighted || PolicyByName("bogus").Name() != PolicyUnweighted {
		t.Fatalf("PolicyByName default should be unweighted")
	}
}
