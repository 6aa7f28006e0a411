// Package viz builds chart data for exploratory views.
//
// Every chart is a variant in a closed set keyed by (Mode, Kind). A variant
// declares which column types it fits and how to build its data; callers
// list the variants available for their selection and dispatch by key.
// Charts carry data only (bins, counts, points, matrices); drawing is left
// to the client.
package viz

import (
	"errors"
	"fmt"
	"slices"

	"github.com/JonMunkholm/wrangle/internal/profile"
	"github.com/JonMunkholm/wrangle/internal/table"
)

// Errors returned by Build.
var (
	ErrUnknownChart = errors.New("unknown chart")
	ErrChartParams  = errors.New("invalid chart parameters")
)

// MaxHueValues bounds the distinct values of a column used for colouring or
// faceting, so legends stay readable.
const MaxHueValues = 15

// TopCategories bounds the categories shown by count and pie charts.
const TopCategories = 10

// Mode groups charts by how many variables they relate.
type Mode string

const (
	Univariate   Mode = "univariate"
	Bivariate    Mode = "bivariate"
	Multivariate Mode = "multivariate"
)

// Modes lists the modes in display order.
var Modes = []Mode{Univariate, Bivariate, Multivariate}

// Kind names a chart within a mode.
type Kind string

const (
	Histogram    Kind = "histogram"
	BoxPlot      Kind = "box"
	KDE          Kind = "kde"
	CountPlot    Kind = "count"
	PieChart     Kind = "pie"
	Scatter      Kind = "scatter"
	LinePlot     Kind = "line"
	RegPlot      Kind = "regression"
	Hexbin       Kind = "hexbin"
	ViolinPlot   Kind = "violin"
	BarMean      Kind = "bar_mean"
	GroupedCount Kind = "grouped_count"
	Crosstab     Kind = "crosstab"
	CorrHeatmap  Kind = "correlation"
	PairPlot     Kind = "pair"
	Scatter3D    Kind = "scatter3d"
	Bubble       Kind = "bubble"
	FacetGrid    Kind = "facet"
	Treemap      Kind = "treemap"
	Sunburst     Kind = "sunburst"
)

// Params selects the columns a chart uses. Which fields matter depends on
// the chart.
type Params struct {
	X       string   `json:"x,omitempty"`
	Y       string   `json:"y,omitempty"`
	Z       string   `json:"z,omitempty"`
	Size    string   `json:"size,omitempty"`
	Hue     string   `json:"hue,omitempty"`
	Columns []string `json:"columns,omitempty"`
}

// Chart is the data behind one rendered chart. Only the fields relevant to
// the chart kind are set.
type Chart struct {
	Mode   Mode   `json:"mode"`
	Kind   Kind   `json:"kind"`
	Title  string `json:"title"`
	Params Params `json:"params"`

	Bins    []profile.Bin        `json:"bins,omitempty"`
	Counts  []profile.ValueCount `json:"counts,omitempty"`
	Curve   []Point              `json:"curve,omitempty"`
	Boxes   []Box                `json:"boxes,omitempty"`
	Series  []Series             `json:"series,omitempty"`
	Bars    []Bar                `json:"bars,omitempty"`
	Cells   []Cell               `json:"cells,omitempty"`
	Matrix  *Matrix              `json:"matrix,omitempty"`
	Fit     *Fit                 `json:"fit,omitempty"`
	Nodes   []Node               `json:"nodes,omitempty"`
	Facets  []Facet              `json:"facets,omitempty"`
	Skipped int                  `json:"skipped,omitempty"`
}

// Point is one observation. Z and Size are set only by charts that use them.
type Point struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z,omitempty"`
	Size float64 `json:"size,omitempty"`
}

// Series is a named group of points, one per hue value.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Box is a five-number summary with Tukey whiskers.
type Box struct {
	Group    string    `json:"group"`
	Count    int       `json:"count"`
	Low      float64   `json:"low"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	High     float64   `json:"high"`
	Outliers []float64 `json:"outliers,omitempty"`
	Density  []Point   `json:"density,omitempty"`
}

// Bar is one bar of a grouped bar chart.
type Bar struct {
	Category string  `json:"category"`
	Group    string  `json:"group,omitempty"`
	Value    float64 `json:"value"`
}

// Cell is one bin of a two-dimensional histogram.
type Cell struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Count int     `json:"count"`
}

// Matrix is a labelled grid of values. Nil entries are undefined.
type Matrix struct {
	Rows    []string     `json:"rows"`
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// Fit is a least-squares line y = Intercept + Slope*x.
type Fit struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"r_squared"`
}

// Node is one leaf of a hierarchy, identified by its path.
type Node struct {
	Path  []string `json:"path"`
	Value float64  `json:"value"`
}

// Facet is one small multiple.
type Facet struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Option describes an available chart.
type Option struct {
	Mode  Mode   `json:"mode"`
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
}

type key struct {
	mode Mode
	kind Kind
}

type variant struct {
	label string
	// fits reports whether the chart applies to the selection.
	fits  func(t *table.Table, p Params) bool
	build func(t *table.Table, p Params, c *Chart) error
}

var (
	variants = map[key]variant{}
	order    []key
)

func register(mode Mode, kind Kind, label string, fits func(*table.Table, Params) bool, build func(*table.Table, Params, *Chart) error) {
	k := key{mode, kind}
	if _, dup := variants[k]; dup {
		panic(fmt.Sprintf("chart already registered: %s/%s", mode, kind))
	}
	variants[k] = variant{label: label, fits: fits, build: build}
	order = append(order, k)
}

// Available lists the charts of mode that fit the selection, in display
// order.
func Available(t *table.Table, mode Mode, p Params) []Option {
	var out []Option
	for _, k := range order {
		if k.mode != mode {
			continue
		}
		if v := variants[k]; v.fits(t, p) {
			out = append(out, Option{Mode: k.mode, Kind: k.kind, Label: v.label})
		}
	}
	return out
}

// Build computes the chart (mode, kind) for the selection.
func Build(t *table.Table, mode Mode, kind Kind, p Params) (*Chart, error) {
	v, ok := variants[key{mode, kind}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownChart, mode, kind)
	}
	if p.Hue != "" && !slices.Contains(LegendColumns(t), p.Hue) {
		return nil, fmt.Errorf("%w: %q cannot colour a chart; pick a categorical column with fewer than %d values", ErrChartParams, p.Hue, MaxHueValues)
	}
	if !v.fits(t, p) {
		return nil, fmt.Errorf("%w: %s does not apply to the selected columns", ErrChartParams, v.label)
	}
	c := &Chart{Mode: mode, Kind: kind, Title: v.label, Params: p}
	if err := v.build(t, p, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LegendColumns returns the non-numeric columns with fewer than
// MaxHueValues distinct values.
func LegendColumns(t *table.Table) []string {
	var out []string
	for _, c := range t.Columns() {
		if c.Type.Numeric() {
			continue
		}
		if distinctBelow(c, MaxHueValues) {
			out = append(out, c.Name)
		}
	}
	return out
}

func distinctBelow(c *table.Column, limit int) bool {
	seen := make(map[string]struct{})
	for i := range c.Values {
		if c.IsNull(i) {
			continue
		}
		seen[c.Format(i)] = struct{}{}
		if len(seen) >= limit {
			return false
		}
	}
	return true
}

// column returns the named column when it exists and satisfies want.
func column(t *table.Table, name string, want func(table.Type) bool) (*table.Column, bool) {
	if name == "" {
		return nil, false
	}
	c, err := t.Column(name)
	if err != nil || !want(c.Type) {
		return nil, false
	}
	return c, true
}

func numeric(t table.Type) bool { return t.Numeric() }

func nonNumeric(t table.Type) bool { return !t.Numeric() }

func anyType(table.Type) bool { return true }
