package grading

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Threshold is one row of a score-keyed lookup table.
type Threshold[T any] struct {
	MinScore decimal.Decimal
	Value    T
}

// Table is a lookup table sorted by ascending MinScore. Rows with equal
// MinScore keep their insertion order.
type Table[T any] struct {
	rows []Threshold[T]
}

func NewTable[T any](rows []Threshold[T]) Table[T] {
	sorted := append([]Threshold[T](nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinScore.LessThan(sorted[j].MinScore)
	})
	return Table[T]{rows: sorted}
}

func (t Table[T]) Len() int { return len(t.rows) }

// Select returns the row with the highest MinScore <= score. When score is
// below every threshold the row with the lowest MinScore is returned. On equal
// thresholds the earliest inserted row wins. ok is false only for an empty
// table.
func (t Table[T]) Select(score decimal.Decimal) (T, bool) {
	var zero T
	if len(t.rows) == 0 {
		return zero, false
	}
	best := -1
	for i, row := range t.rows {
		if row.MinScore.GreaterThan(score) {
			break
		}
		if best == -1 || row.MinScore.GreaterThan(t.rows[best].MinScore) {
			best = i
		}
	}
	if best == -1 {
		best = 0
	}
	return t.rows[best].Value, true
}
