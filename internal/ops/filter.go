package ops

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// FilterParams selects rows for an exploratory view. Text and boolean
// columns filter by membership in Values; numeric columns filter by the
// inclusive range [Min, Max], where a nil bound is open.
type FilterParams struct {
	Column string   `json:"column" validate:"required"`
	Values []string `json:"values,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Filter returns the rows matching p. An empty selection returns t. Rows
// with a null in the filtered column never match a non-empty selection.
func Filter(t *table.Table, p FilterParams) (*table.Table, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	col, err := t.Column(p.Column)
	if err != nil {
		return nil, invalid("column %q not found", p.Column)
	}

	var match func(i int) bool
	switch {
	case col.Type.Categorical():
		if p.Min != nil || p.Max != nil {
			return nil, invalid("column %q is categorical; filter it by values", col.Name)
		}
		if len(p.Values) == 0 {
			return t, nil
		}
		set := make(map[string]bool, len(p.Values))
		for _, v := range p.Values {
			set[v] = true
		}
		match = func(i int) bool { return !col.IsNull(i) && set[col.Format(i)] }

	case col.Type.Numeric():
		if len(p.Values) > 0 {
			return nil, invalid("column %q is numeric; filter it by range", col.Name)
		}
		if p.Min == nil && p.Max == nil {
			return t, nil
		}
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			return nil, invalid("range minimum %v exceeds maximum %v", *p.Min, *p.Max)
		}
		match = func(i int) bool {
			f, ok := col.Float(i)
			if !ok {
				return false
			}
			return (p.Min == nil || f >= *p.Min) && (p.Max == nil || f <= *p.Max)
		}

	default:
		return nil, invalid("column %q holds %s values; filter supports categorical and numeric columns", col.Name, col.Type)
	}

	keep := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		if match(i) {
			keep = append(keep, i)
		}
	}
	return t.Take(keep), nil
}

// Choices returns the distinct non-null display values of a column, sorted.
func Choices(t *table.Table, column string) ([]string, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for i := range col.Values {
		if col.IsNull(i) {
			continue
		}
		s := col.Format(i)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Range returns the minimum and maximum of a numeric column. ok is false
// when the column is not numeric or holds no values.
func Range(t *table.Table, column string) (lo, hi float64, ok bool) {
	col, err := t.Column(column)
	if err != nil || !col.Type.Numeric() {
		return 0, 0, false
	}
	xs := col.Floats()
	if len(xs) == 0 {
		return 0, 0, false
	}
	return floats.Min(xs), floats.Max(xs), true
}

// DistinctCount returns the number of distinct non-null values in a column.
func DistinctCount(col *table.Column) int {
	seen := make(map[string]struct{})
	for i := range col.Values {
		if !col.IsNull(i) {
			seen[col.Format(i)] = struct{}{}
		}
	}
	return len(seen)
}

