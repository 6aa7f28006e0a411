package ops

import (
	"fmt"
	"slices"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// PivotParams configures Pivot.
type PivotParams struct {
	Index   []string `json:"index" validate:"min=1,unique,dive,required"`
	Columns string   `json:"columns" validate:"required"`
	Values  string   `json:"values" validate:"required"`
	Agg     Agg      `json:"agg" validate:"omitempty,oneof=mean sum count min max median first"`
}

// Pivot turns the distinct values of one column into headers (long to wide).
// Each output row is one distinct index key; each cell aggregates the values
// that share its index key and header. Index keys and headers appear in the
// order they are first seen, so Pivot with AggFirst undoes Melt. Rows with a
// null index key or header are dropped.
func Pivot(t *table.Table, p PivotParams) (*table.Table, error) {
	if p.Agg == "" {
		p.Agg = AggMean
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := requireColumns(t.Has, append([]string{p.Columns, p.Values}, p.Index...)...); err != nil {
		return nil, err
	}
	if p.Columns == p.Values {
		return nil, invalid("header and value columns must differ")
	}
	if slices.Contains(p.Index, p.Columns) || slices.Contains(p.Index, p.Values) {
		return nil, invalid("index columns cannot also be the header or value column")
	}

	header, _ := t.Column(p.Columns)
	values, _ := t.Column(p.Values)
	cellType, err := p.Agg.ResultType(values.Type)
	if err != nil {
		return nil, err
	}

	indexPos := make([]int, len(p.Index))
	for i, name := range p.Index {
		indexPos[i] = t.Index(name)
	}

	var (
		keyRows  []int          // first source row of each index key
		keyOrder = map[string]int{}
		headers  []string
		hdrOrder = map[string]int{}
		cells    = map[[2]int][]int{}
	)
rows:
	for r := 0; r < t.NumRows(); r++ {
		if header.IsNull(r) {
			continue
		}
		for _, j := range indexPos {
			if t.Columns()[j].IsNull(r) {
				continue rows
			}
		}
		key := t.RowKey(r, indexPos)
		ki, ok := keyOrder[key]
		if !ok {
			ki = len(keyRows)
			keyOrder[key] = ki
			keyRows = append(keyRows, r)
		}
		h := header.Format(r)
		hi, ok := hdrOrder[h]
		if !ok {
			hi = len(headers)
			hdrOrder[h] = hi
			headers = append(headers, h)
		}
		cells[[2]int{ki, hi}] = append(cells[[2]int{ki, hi}], r)
	}

	out := make([]*table.Column, 0, len(p.Index)+len(headers))
	for _, j := range indexPos {
		src := t.Columns()[j]
		vals := make([]any, len(keyRows))
		for k, r := range keyRows {
			vals[k] = src.Values[r]
		}
		out = append(out, &table.Column{Name: src.Name, Type: src.Type, Values: vals})
	}
	for hi, h := range headers {
		if h == "" || slices.Contains(p.Index, h) {
			return nil, invalid("header value %q cannot become a column name", h)
		}
		vals := make([]any, len(keyRows))
		for ki := range keyRows {
			if rs, ok := cells[[2]int{ki, hi}]; ok {
				vals[ki] = p.Agg.Apply(values, rs)
			}
		}
		out = append(out, &table.Column{Name: h, Type: cellType, Values: vals})
	}

	res, err := table.New(out...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return res, nil
}
