package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/wrangle/internal/profile"
	"github.com/JonMunkholm/wrangle/internal/table"
)

const (
	maxPairColumns = 5
	maxHierarchy   = 3
)

func init() {
	register(Multivariate, CorrHeatmap, "Correlation heatmap", fitsColumns(numeric, 2, 0), buildCorrelation)
	register(Multivariate, PairPlot, "Pair plot", fitsColumns(numeric, 2, maxPairColumns), buildPair)
	register(Multivariate, Scatter3D, "3D scatter plot", fitsXYZ, buildScatter3D)
	register(Multivariate, Bubble, "Bubble chart", fitsBubble, buildBubble)
	register(Multivariate, FacetGrid, "Facet grid", fitsFacet, buildFacet)
	register(Multivariate, Treemap, "Treemap", fitsColumns(nonNumeric, 1, maxHierarchy), buildHierarchy)
	register(Multivariate, Sunburst, "Sunburst chart", fitsColumns(nonNumeric, 1, maxHierarchy), buildHierarchy)
}

// fitsColumns requires between lo and hi columns (hi 0 for no limit), all
// distinct and satisfying want.
func fitsColumns(want func(table.Type) bool, lo, hi int) func(*table.Table, Params) bool {
	return func(t *table.Table, p Params) bool {
		n := len(p.Columns)
		if n < lo || (hi > 0 && n > hi) {
			return false
		}
		seen := map[string]bool{}
		for _, name := range p.Columns {
			if seen[name] {
				return false
			}
			seen[name] = true
			if _, ok := column(t, name, want); !ok {
				return false
			}
		}
		return true
	}
}

func fitsXYZ(t *table.Table, p Params) bool {
	if !fitsXY(numeric, numeric)(t, p) || p.Z == p.X || p.Z == p.Y {
		return false
	}
	_, ok := column(t, p.Z, numeric)
	return ok
}

func fitsBubble(t *table.Table, p Params) bool {
	if !fitsXY(numeric, numeric)(t, p) {
		return false
	}
	_, ok := column(t, p.Size, numeric)
	return ok
}

// fitsFacet needs a numeric pair plus the legend column to facet by.
func fitsFacet(t *table.Table, p Params) bool {
	return p.Hue != "" && fitsXY(numeric, numeric)(t, p)
}

func selectColumns(t *table.Table, names []string) (*table.Table, error) {
	cols := make([]*table.Column, len(names))
	for i, name := range names {
		cols[i] = mustColumn(t, name)
	}
	return table.New(cols...)
}

func buildCorrelation(t *table.Table, p Params, c *Chart) error {
	sub, err := selectColumns(t, p.Columns)
	if err != nil {
		return err
	}
	corr := profile.Correlations(sub)
	c.Matrix = &Matrix{Rows: corr.Columns, Columns: corr.Columns, Values: corr.Matrix}
	return nil
}

// buildPair emits one facet per column pair, labelled "y vs x".
func buildPair(t *table.Table, p Params, c *Chart) error {
	for i, x := range p.Columns {
		for _, y := range p.Columns[i+1:] {
			series, skipped := pairs(t, Params{X: x, Y: y})
			f := Facet{Label: y + " vs " + x}
			if len(series) > 0 {
				f.Points = series[0].Points
			}
			c.Facets = append(c.Facets, f)
			c.Skipped = max(c.Skipped, skipped)
		}
	}
	return nil
}

// points collects rows where every named numeric column is present.
func points(t *table.Table, p Params, extra string, set func(*Point, float64)) ([]Series, int) {
	x, y, e := mustColumn(t, p.X), mustColumn(t, p.Y), mustColumn(t, extra)
	hue := hueColumn(t, p)

	var out []Series
	pos := map[string]int{}
	skipped := 0
	for i := range t.NumRows() {
		fx, okX := x.Float(i)
		fy, okY := y.Float(i)
		fe, okE := e.Float(i)
		if !okX || !okY || !okE || (hue != nil && hue.IsNull(i)) {
			skipped++
			continue
		}
		name := hueOf(hue, i)
		j, ok := pos[name]
		if !ok {
			j = len(out)
			pos[name] = j
			out = append(out, Series{Name: name})
		}
		pt := Point{X: fx, Y: fy}
		set(&pt, fe)
		out[j].Points = append(out[j].Points, pt)
	}
	return out, skipped
}

func buildScatter3D(t *table.Table, p Params, c *Chart) error {
	c.Series, c.Skipped = points(t, p, p.Z, func(pt *Point, v float64) { pt.Z = v })
	return nil
}

func buildBubble(t *table.Table, p Params, c *Chart) error {
	c.Series, c.Skipped = points(t, p, p.Size, func(pt *Point, v float64) { pt.Size = v })
	return nil
}

func buildFacet(t *table.Table, p Params, c *Chart) error {
	series, skipped := pairs(t, p)
	c.Skipped = skipped
	sort.Slice(series, func(i, j int) bool { return series[i].Name < series[j].Name })
	for _, s := range series {
		c.Facets = append(c.Facets, Facet{Label: s.Name, Points: s.Points})
	}
	return nil
}

// buildHierarchy aggregates rows into leaves keyed by the path of category
// values. Leaves are sized by the sum of Size when set, by row count
// otherwise, and sorted by path.
func buildHierarchy(t *table.Table, p Params, c *Chart) error {
	cols := make([]*table.Column, len(p.Columns))
	for i, name := range p.Columns {
		cols[i] = mustColumn(t, name)
	}
	var size *table.Column
	if p.Size != "" {
		s, ok := column(t, p.Size, numeric)
		if !ok {
			return fmt.Errorf("%w: size column %q must be numeric", ErrChartParams, p.Size)
		}
		size = s
	}

	leaves := map[string]*Node{}
rows:
	for i := range t.NumRows() {
		path := make([]string, len(cols))
		for j, col := range cols {
			if col.IsNull(i) {
				c.Skipped++
				continue rows
			}
			path[j] = col.Format(i)
		}
		v := 1.0
		if size != nil {
			f, ok := size.Float(i)
			if !ok {
				c.Skipped++
				continue
			}
			v = f
		}
		k := strings.Join(path, "\x1f")
		n, ok := leaves[k]
		if !ok {
			n = &Node{Path: path}
			leaves[k] = n
		}
		n.Value += v
	}

	keys := make([]string, 0, len(leaves))
	for k := range leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.Nodes = append(c.Nodes, *leaves[k])
	}
	return nil
}
