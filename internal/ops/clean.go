package ops

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// Strategy is a way of handling missing values.
type Strategy string

const (
	StrategyDrop  Strategy = "drop"
	StrategyFfill Strategy = "ffill"
	StrategyBfill Strategy = "bfill"
	StrategyMean  Strategy = "mean"
)

// Strategies lists the null strategies in display order.
var Strategies = []Strategy{StrategyDrop, StrategyFfill, StrategyBfill, StrategyMean}

// Label returns the human-readable strategy name.
func (s Strategy) Label() string {
	switch s {
	case StrategyDrop:
		return "Delete Rows"
	case StrategyFfill:
		return "Forward Fill"
	case StrategyBfill:
		return "Backward Fill"
	case StrategyMean:
		return "Fill with Mean"
	}
	return string(s)
}

// CleanParams configures Clean.
type CleanParams struct {
	Column   string   `json:"column" validate:"required"`
	Strategy Strategy `json:"strategy" validate:"required,oneof=drop ffill bfill mean"`
}

// Clean resolves the missing values of one column. The column must contain
// at least one null. Mean filling a non-numeric column returns
// ErrNotApplied. Mean filling an int column yields a float column.
func Clean(t *table.Table, p CleanParams) (*table.Table, int, error) {
	if err := Validate(p); err != nil {
		return nil, 0, err
	}
	col, err := t.Column(p.Column)
	if err != nil {
		return nil, 0, invalid("column %q not found", p.Column)
	}
	nulls := col.NullCount()
	if nulls == 0 {
		return nil, 0, fmt.Errorf("%w: %q", ErrNoNulls, p.Column)
	}

	switch p.Strategy {
	case StrategyDrop:
		keep := make([]int, 0, t.NumRows()-nulls)
		for i := range col.Values {
			if !col.IsNull(i) {
				keep = append(keep, i)
			}
		}
		return t.Take(keep), nulls, nil

	case StrategyFfill, StrategyBfill:
		values := make([]any, len(col.Values))
		copy(values, col.Values)
		filled := 0
		var last any
		fill := func(i int) {
			if values[i] == nil {
				if last != nil {
					values[i] = last
					filled++
				}
				return
			}
			last = values[i]
		}
		if p.Strategy == StrategyFfill {
			for i := range values {
				fill(i)
			}
		} else {
			for i := len(values) - 1; i >= 0; i-- {
				fill(i)
			}
		}
		res, err := t.WithColumn(&table.Column{Name: col.Name, Type: col.Type, Values: values})
		return res, filled, err

	case StrategyMean:
		if !col.Type.Numeric() {
			return nil, 0, fmt.Errorf("%w: mean fill needs a numeric column, %q holds %s values", ErrNotApplied, col.Name, col.Type)
		}
		xs := col.Floats()
		if len(xs) == 0 {
			return nil, 0, fmt.Errorf("%w: %q has no values to average", ErrNotApplied, col.Name)
		}
		mean := stat.Mean(xs, nil)
		values := make([]any, len(col.Values))
		for i := range col.Values {
			if f, ok := col.Float(i); ok {
				values[i] = f
			} else {
				values[i] = mean
			}
		}
		res, err := t.WithColumn(&table.Column{Name: col.Name, Type: table.Float, Values: values})
		return res, nulls, err
	}
	return nil, 0, invalid("unknown strategy %q", p.Strategy)
}
