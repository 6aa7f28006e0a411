package ops

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// Agg names an aggregation function.
type Agg string

const (
	AggMean   Agg = "mean"
	AggSum    Agg = "sum"
	AggCount  Agg = "count"
	AggMin    Agg = "min"
	AggMax    Agg = "max"
	AggMedian Agg = "median"
	AggFirst  Agg = "first"
)

// Aggs lists the aggregations offered to users, in display order.
var Aggs = []Agg{AggSum, AggMean, AggCount, AggMin, AggMax, AggMedian, AggFirst}

// ParseAgg converts a name to an Agg.
func ParseAgg(s string) (Agg, error) {
	for _, a := range Aggs {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAgg, s)
}

// ResultType returns the type produced by aggregating a column of type in.
// It fails with ErrCannotAggregate when the combination has no meaning.
func (a Agg) ResultType(in table.Type) (table.Type, error) {
	switch a {
	case AggCount:
		return table.Int, nil
	case AggFirst, AggMin, AggMax:
		return in, nil
	case AggSum:
		if in.Numeric() {
			return in, nil
		}
	case AggMean, AggMedian:
		if in.Numeric() {
			return table.Float, nil
		}
	default:
		return in, fmt.Errorf("%w: %q", ErrUnknownAgg, string(a))
	}
	return in, fmt.Errorf("%w: %s of %s values", ErrCannotAggregate, a, in)
}

// Apply aggregates the cells of col at the given rows. Nulls are skipped.
// When no non-null cell remains the result is null, except for count.
// Callers check ResultType first.
func (a Agg) Apply(col *table.Column, rows []int) any {
	if a == AggCount {
		n := int64(0)
		for _, r := range rows {
			if col.Values[r] != nil {
				n++
			}
		}
		return n
	}

	switch a {
	case AggFirst:
		for _, r := range rows {
			if v := col.Values[r]; v != nil {
				return v
			}
		}
		return nil
	case AggMin, AggMax:
		var best any
		for _, r := range rows {
			v := col.Values[r]
			if v == nil {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			c := table.Compare(v, best)
			if (a == AggMin && c < 0) || (a == AggMax && c > 0) {
				best = v
			}
		}
		return best
	case AggSum:
		if col.Type == table.Int {
			var sum int64
			seen := false
			for _, r := range rows {
				if v, ok := col.Values[r].(int64); ok {
					sum += v
					seen = true
				}
			}
			if !seen {
				return nil
			}
			return sum
		}
	}

	xs := numbers(col, rows)
	if len(xs) == 0 {
		return nil
	}
	switch a {
	case AggSum:
		return floats.Sum(xs)
	case AggMean:
		return stat.Mean(xs, nil)
	case AggMedian:
		return median(xs)
	}
	return nil
}

// numbers collects the non-null numeric cells at rows.
func numbers(col *table.Column, rows []int) []float64 {
	xs := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := col.Float(r); ok {
			xs = append(xs, f)
		}
	}
	return xs
}

// median averages the two middle values of an even-length sample.
func median(xs []float64) float64 {
	sort.Float64s(xs)
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}
