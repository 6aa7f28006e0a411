// Package profile produces a read-only descriptive report of a table:
// dataset overview, per-column statistics, alerts, correlations and a
// sample of rows. Reports render to a self-contained HTML document.
package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/JonMunkholm/wrangle/internal/ops"
	"github.com/JonMunkholm/wrangle/internal/table"
)

// ErrEmptyTable is returned when there is nothing to profile.
var ErrEmptyTable = errors.New("table has no columns to profile")

// Alert thresholds.
const (
	HighCorrelation = 0.9
	HighCardinality = 50
	ZerosFraction   = 0.1
	SampleRows      = 10
	TopValues       = 10
	HistogramBins   = 10
)

// Report is the profile of one table.
type Report struct {
	Fingerprint uint64    `json:"fingerprint,string"`
	GeneratedAt time.Time `json:"generated_at"`
	Title       string    `json:"title"`

	Rows           int            `json:"rows"`
	Columns        int            `json:"columns"`
	MissingCells   int            `json:"missing_cells"`
	MissingPercent float64        `json:"missing_percent"`
	DuplicateRows  int            `json:"duplicate_rows"`
	TypeCounts     map[string]int `json:"type_counts"`

	Variables    []Variable   `json:"variables"`
	Alerts       []Alert      `json:"alerts"`
	Correlations *Correlation `json:"correlations,omitempty"`

	SampleHeader []string   `json:"sample_header"`
	Sample       [][]string `json:"sample"`
}

// Variable describes one column.
type Variable struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Count          int     `json:"count"`
	Missing        int     `json:"missing"`
	MissingPercent float64 `json:"missing_percent"`
	Distinct       int     `json:"distinct"`

	Numeric     *NumericStats     `json:"numeric,omitempty"`
	Categorical *CategoricalStats `json:"categorical,omitempty"`
	Temporal    *TemporalStats    `json:"temporal,omitempty"`
}

// Alert flags a notable property of the data.
type Alert struct {
	Kind    string `json:"kind"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// Options tune report generation.
type Options struct {
	Title string
	Now   func() time.Time
}

// Generate profiles t.
func Generate(t *table.Table, opts Options) (*Report, error) {
	if t == nil || t.NumCols() == 0 {
		return nil, ErrEmptyTable
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	title := opts.Title
	if title == "" {
		title = "Data Profile"
	}

	rows, cols := t.Shape()
	r := &Report{
		Fingerprint:   t.Fingerprint(),
		GeneratedAt:   now().UTC(),
		Title:         title,
		Rows:          rows,
		Columns:       cols,
		DuplicateRows: ops.DuplicateCount(t),
		TypeCounts:    make(map[string]int),
	}

	for _, c := range t.Columns() {
		v := describe(c)
		r.MissingCells += v.Missing
		r.TypeCounts[v.Type]++
		r.Variables = append(r.Variables, v)
	}
	if cells := rows * cols; cells > 0 {
		r.MissingPercent = percent(r.MissingCells, cells)
	}

	r.Correlations = Correlations(t)
	r.Alerts = alerts(r)

	head := t.Head(SampleRows)
	r.SampleHeader = head.Names()
	for i := 0; i < head.NumRows(); i++ {
		row := make([]string, head.NumCols())
		for j, c := range head.Columns() {
			row[j] = c.Format(i)
		}
		r.Sample = append(r.Sample, row)
	}
	return r, nil
}

func describe(c *table.Column) Variable {
	missing := c.NullCount()
	v := Variable{
		Name:     c.Name,
		Type:     c.Type.String(),
		Count:    c.Len() - missing,
		Missing:  missing,
		Distinct: ops.DistinctCount(c),
	}
	if c.Len() > 0 {
		v.MissingPercent = percent(missing, c.Len())
	}
	switch {
	case c.Type.Numeric():
		v.Numeric = Numeric(c)
	case c.Type == table.Time:
		v.Temporal = Temporal(c)
	default:
		v.Categorical = Categorical(c, TopValues)
	}
	return v
}

func alerts(r *Report) []Alert {
	var out []Alert
	if r.DuplicateRows > 0 {
		out = append(out, Alert{Kind: "duplicates",
			Message: fmt.Sprintf("Dataset has %d (%.1f%%) duplicate rows", r.DuplicateRows, percent(r.DuplicateRows, r.Rows))})
	}
	for _, v := range r.Variables {
		if v.Missing > 0 {
			out = append(out, Alert{Kind: "missing", Column: v.Name,
				Message: fmt.Sprintf("%s has %d (%.1f%%) missing values", v.Name, v.Missing, v.MissingPercent)})
		}
		switch {
		case v.Count > 0 && v.Distinct == 1:
			out = append(out, Alert{Kind: "constant", Column: v.Name,
				Message: fmt.Sprintf("%s has constant value", v.Name)})
		case v.Count > 1 && v.Distinct == v.Count && v.Missing == 0:
			out = append(out, Alert{Kind: "unique", Column: v.Name,
				Message: fmt.Sprintf("%s has unique values", v.Name)})
		}
		if v.Categorical != nil && v.Distinct > HighCardinality {
			out = append(out, Alert{Kind: "high_cardinality", Column: v.Name,
				Message: fmt.Sprintf("%s has a high cardinality: %d distinct values", v.Name, v.Distinct)})
		}
		if v.Numeric != nil && v.Count > 0 && float64(v.Numeric.Zeros)/float64(v.Count) > ZerosFraction {
			out = append(out, Alert{Kind: "zeros", Column: v.Name,
				Message: fmt.Sprintf("%s has %d (%.1f%%) zeros", v.Name, v.Numeric.Zeros, percent(v.Numeric.Zeros, v.Count))})
		}
	}
	if c := r.Correlations; c != nil {
		for i := range c.Columns {
			for j := i + 1; j < len(c.Columns); j++ {
				if x := c.Matrix[i][j]; x != nil && math.Abs(*x) >= HighCorrelation {
					out = append(out, Alert{Kind: "high_correlation", Column: c.Columns[i],
						Message: fmt.Sprintf("%s is highly correlated with %s (r=%.2f)", c.Columns[i], c.Columns[j], *x)})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
