package ops

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// SummarySeparator joins a value column name with its column keys in
// pivot summary headers, e.g. "sales|2024|Q1".
const SummarySeparator = "|"

// SummaryParams configures Summarize.
type SummaryParams struct {
	Rows    []string `json:"rows" validate:"min=1,unique,dive,required"`
	Columns []string `json:"columns" validate:"unique,dive,required"`
	Values  []string `json:"values" validate:"min=1,unique,dive,required"`
	Agg     Agg      `json:"agg" validate:"required,oneof=sum mean count min max"`
}

// PivotResult is a cross-tabulation. Table starts with one column per row
// grouping column, followed by one column per (value, column key) pair.
type PivotResult struct {
	Table       *table.Table  `json:"-"`
	Params      SummaryParams `json:"params"`
	RowKeys     int           `json:"row_keys"`
	ColumnKeys  []string      `json:"column_keys"`
	ValueLabels []string      `json:"value_labels"`
}

// Summarize builds a pivot summary. Row and column keys are sorted; rows or
// columns whose key contains a null are dropped. Cells with no source rows
// are null.
func Summarize(t *table.Table, p SummaryParams) (*PivotResult, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	all := slices.Concat(p.Rows, p.Columns, p.Values)
	if err := requireColumns(t.Has, all...); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(all))
	for _, name := range all {
		if seen[name] {
			return nil, invalid("column %q is used in more than one role", name)
		}
		seen[name] = true
	}

	valueCols := make([]*table.Column, len(p.Values))
	valueTypes := make([]table.Type, len(p.Values))
	for i, name := range p.Values {
		valueCols[i], _ = t.Column(name)
		typ, err := p.Agg.ResultType(valueCols[i].Type)
		if err != nil {
			return nil, fmt.Errorf("value column %q: %w", name, err)
		}
		valueTypes[i] = typ
	}

	rowPos := positions(t, p.Rows)
	colPos := positions(t, p.Columns)
	rowGroups := groupRows(t, rowPos)
	colGroups := groupRows(t, colPos)

	// Source rows of every (row group, column group) cell.
	colOf := make(map[int]int, t.NumRows())
	for gi, g := range colGroups {
		for _, r := range g.rows {
			colOf[r] = gi
		}
	}
	cells := make(map[[2]int][]int)
	for ri, rg := range rowGroups {
		for _, r := range rg.rows {
			if ci, ok := colOf[r]; ok {
				cells[[2]int{ri, ci}] = append(cells[[2]int{ri, ci}], r)
			}
		}
	}

	out := make([]*table.Column, 0, len(p.Rows)+len(p.Values)*len(colGroups))
	for k, j := range rowPos {
		src := t.Columns()[j]
		vals := make([]any, len(rowGroups))
		for gi, g := range rowGroups {
			vals[gi] = g.key[k]
		}
		out = append(out, &table.Column{Name: src.Name, Type: src.Type, Values: vals})
	}

	colKeys := make([]string, len(colGroups))
	for gi, g := range colGroups {
		colKeys[gi] = joinKey(g.key)
	}

	var labels []string
	for vi, vc := range valueCols {
		for ci := range colGroups {
			name := vc.Name
			if len(p.Columns) > 0 {
				name += SummarySeparator + colKeys[ci]
			}
			vals := make([]any, len(rowGroups))
			for ri := range rowGroups {
				if rs, ok := cells[[2]int{ri, ci}]; ok {
					vals[ri] = p.Agg.Apply(vc, rs)
				}
			}
			out = append(out, &table.Column{Name: name, Type: valueTypes[vi], Values: vals})
			labels = append(labels, name)
		}
	}

	res, err := table.New(out...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if len(p.Columns) == 0 {
		colKeys = nil
	}
	return &PivotResult{
		Table:       res,
		Params:      p,
		RowKeys:     len(rowGroups),
		ColumnKeys:  colKeys,
		ValueLabels: labels,
	}, nil
}

func positions(t *table.Table, names []string) []int {
	pos := make([]int, len(names))
	for i, n := range names {
		pos[i] = t.Index(n)
	}
	return pos
}

type rowGroup struct {
	key  []any
	rows []int
}

// groupRows partitions rows by the cells at cols, sorted by key. Rows with a
// null in any key cell are left out. With no key columns every row falls in
// a single group.
func groupRows(t *table.Table, cols []int) []rowGroup {
	index := make(map[string]int)
	var groups []rowGroup
rows:
	for r := 0; r < t.NumRows(); r++ {
		key := make([]any, len(cols))
		for k, j := range cols {
			v := t.Columns()[j].Values[r]
			if v == nil {
				continue rows
			}
			key[k] = v
		}
		id := t.RowKey(r, cols)
		gi, ok := index[id]
		if !ok {
			gi = len(groups)
			index[id] = gi
			groups = append(groups, rowGroup{key: key})
		}
		groups[gi].rows = append(groups[gi].rows, r)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return compareKeys(groups[a].key, groups[b].key) < 0
	})
	return groups
}

func compareKeys(a, b []any) int {
	for i := range a {
		if c := table.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func joinKey(key []any) string {
	parts := make([]string, len(key))
	for i, v := range key {
		parts[i] = table.FormatValue(v)
	}
	return strings.Join(parts, SummarySeparator)
}
