package viz

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/wrangle/internal/table"
)

const hexGrid = 30

func init() {
	register(Bivariate, Scatter, "Scatter plot", fitsXY(numeric, numeric), buildScatter)
	register(Bivariate, LinePlot, "Line plot", fitsXY(numeric, numeric), buildLine)
	register(Bivariate, RegPlot, "Regression plot", fitsXY(numeric, numeric), buildRegression)
	register(Bivariate, Hexbin, "Hexbin plot", fitsXY(numeric, numeric), buildHexbin)
	register(Bivariate, BoxPlot, "Box plot", fitsMixed, buildBoxByGroup)
	register(Bivariate, ViolinPlot, "Violin plot", fitsMixed, buildViolin)
	register(Bivariate, BarMean, "Bar plot (mean)", fitsMixed, buildBarMean)
	register(Bivariate, GroupedCount, "Grouped count plot", fitsXY(nonNumeric, nonNumeric), buildGroupedCount)
	register(Bivariate, Crosstab, "Crosstab heatmap", fitsXY(nonNumeric, nonNumeric), buildCrosstab)
}

func fitsXY(x, y func(table.Type) bool) func(*table.Table, Params) bool {
	return func(t *table.Table, p Params) bool {
		if p.X == p.Y {
			return false
		}
		_, okX := column(t, p.X, x)
		_, okY := column(t, p.Y, y)
		return okX && okY
	}
}

// fitsMixed accepts one categorical and one numeric column in either order.
func fitsMixed(t *table.Table, p Params) bool {
	return fitsXY(nonNumeric, numeric)(t, p) || fitsXY(numeric, nonNumeric)(t, p)
}

// split returns the categorical and numeric columns of a mixed selection.
func split(t *table.Table, p Params) (cat, num *table.Column) {
	x, y := mustColumn(t, p.X), mustColumn(t, p.Y)
	if x.Type.Numeric() {
		return y, x
	}
	return x, y
}

// hueOf returns the display value used to colour row i, or "" without hue.
func hueOf(hue *table.Column, i int) string {
	if hue == nil {
		return ""
	}
	return hue.Format(i)
}

func hueColumn(t *table.Table, p Params) *table.Column {
	if p.Hue == "" {
		return nil
	}
	return mustColumn(t, p.Hue)
}

// pairs collects the rows where both x and y are present, split by hue in
// first-appearance order. Rows with a null hue are skipped.
func pairs(t *table.Table, p Params) ([]Series, int) {
	x, y := mustColumn(t, p.X), mustColumn(t, p.Y)
	hue := hueColumn(t, p)

	var out []Series
	pos := map[string]int{}
	skipped := 0
	for i := range t.NumRows() {
		fx, okX := x.Float(i)
		fy, okY := y.Float(i)
		if !okX || !okY || (hue != nil && hue.IsNull(i)) {
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
		out[j].Points = append(out[j].Points, Point{X: fx, Y: fy})
	}
	return out, skipped
}

func buildScatter(t *table.Table, p Params, c *Chart) error {
	c.Series, c.Skipped = pairs(t, p)
	return nil
}

func buildLine(t *table.Table, p Params, c *Chart) error {
	c.Series, c.Skipped = pairs(t, p)
	for _, s := range c.Series {
		sort.SliceStable(s.Points, func(i, j int) bool { return s.Points[i].X < s.Points[j].X })
	}
	return nil
}

func buildRegression(t *table.Table, p Params, c *Chart) error {
	series, skipped := pairs(t, Params{X: p.X, Y: p.Y})
	c.Series, c.Skipped = series, skipped
	if len(series) == 0 || len(series[0].Points) < 2 {
		return fmt.Errorf("%w: regression needs at least two complete rows", ErrChartParams)
	}
	pts := series[0].Points
	xs, ys := make([]float64, len(pts)), make([]float64, len(pts))
	for i, pt := range pts {
		xs[i], ys[i] = pt.X, pt.Y
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return fmt.Errorf("%w: %q has no spread to fit against", ErrChartParams, p.X)
	}
	c.Fit = &Fit{Intercept: alpha, Slope: beta, RSquared: stat.RSquared(xs, ys, nil, alpha, beta)}
	return nil
}

// buildHexbin counts points on a square grid; cells report their centres.
func buildHexbin(t *table.Table, p Params, c *Chart) error {
	series, skipped := pairs(t, Params{X: p.X, Y: p.Y})
	c.Skipped = skipped
	if len(series) == 0 {
		return nil
	}
	pts := series[0].Points
	minX, maxX := extent(pts, func(pt Point) float64 { return pt.X })
	minY, maxY := extent(pts, func(pt Point) float64 { return pt.Y })
	wx, wy := cellWidth(minX, maxX), cellWidth(minY, maxY)

	type cell struct{ i, j int }
	counts := map[cell]int{}
	for _, pt := range pts {
		k := cell{bucket(pt.X, minX, wx), bucket(pt.Y, minY, wy)}
		counts[k]++
	}
	for k, n := range counts {
		c.Cells = append(c.Cells, Cell{
			X:     minX + (float64(k.i)+0.5)*wx,
			Y:     minY + (float64(k.j)+0.5)*wy,
			Count: n,
		})
	}
	sort.Slice(c.Cells, func(a, b int) bool {
		if c.Cells[a].X != c.Cells[b].X {
			return c.Cells[a].X < c.Cells[b].X
		}
		return c.Cells[a].Y < c.Cells[b].Y
	})
	return nil
}

func extent(pts []Point, f func(Point) float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, pt := range pts {
		v := f(pt)
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

func cellWidth(lo, hi float64) float64 {
	if hi == lo {
		return 1
	}
	return (hi - lo) / hexGrid
}

func bucket(v, lo, w float64) int {
	return min(int((v-lo)/w), hexGrid-1)
}

// groups splits the numeric column by the categorical one, in
// first-appearance order of the categories.
func groups(cat, num *table.Column) (names []string, values map[string][]float64, skipped int) {
	values = map[string][]float64{}
	for i := range num.Values {
		f, ok := num.Float(i)
		if !ok || cat.IsNull(i) {
			skipped++
			continue
		}
		name := cat.Format(i)
		if _, seen := values[name]; !seen {
			names = append(names, name)
		}
		values[name] = append(values[name], f)
	}
	return names, values, skipped
}

func buildBoxByGroup(t *table.Table, p Params, c *Chart) error {
	names, values, skipped := groups(split(t, p))
	c.Skipped = skipped
	for _, name := range names {
		if b, ok := boxStats(name, values[name]); ok {
			c.Boxes = append(c.Boxes, b)
		}
	}
	return nil
}

func buildViolin(t *table.Table, p Params, c *Chart) error {
	names, values, skipped := groups(split(t, p))
	c.Skipped = skipped
	for _, name := range names {
		b, ok := boxStats(name, values[name])
		if !ok {
			continue
		}
		b.Density = density(values[name], kdePoints/2)
		c.Boxes = append(c.Boxes, b)
	}
	return nil
}

// buildBarMean plots the mean of the numeric column per category, split
// further by hue when one is set.
func buildBarMean(t *table.Table, p Params, c *Chart) error {
	cat, num := split(t, p)
	hue := hueColumn(t, p)

	type key struct{ cat, group string }
	var order []key
	sums := map[key][]float64{}
	for i := range num.Values {
		f, ok := num.Float(i)
		if !ok || cat.IsNull(i) || (hue != nil && hue.IsNull(i)) {
			c.Skipped++
			continue
		}
		k := key{cat.Format(i), hueOf(hue, i)}
		if _, seen := sums[k]; !seen {
			order = append(order, k)
		}
		sums[k] = append(sums[k], f)
	}
	for _, k := range order {
		c.Bars = append(c.Bars, Bar{Category: k.cat, Group: k.group, Value: stat.Mean(sums[k], nil)})
	}
	return nil
}

// crosstab counts co-occurrences of x and y values. Labels are sorted.
func crosstab(t *table.Table, p Params) (rows, cols []string, counts map[[2]string]int, skipped int) {
	x, y := mustColumn(t, p.X), mustColumn(t, p.Y)
	counts = map[[2]string]int{}
	seenR, seenC := map[string]bool{}, map[string]bool{}
	for i := range t.NumRows() {
		if x.IsNull(i) || y.IsNull(i) {
			skipped++
			continue
		}
		r, cl := x.Format(i), y.Format(i)
		counts[[2]string{r, cl}]++
		if !seenR[r] {
			seenR[r] = true
			rows = append(rows, r)
		}
		if !seenC[cl] {
			seenC[cl] = true
			cols = append(cols, cl)
		}
	}
	sort.Strings(rows)
	sort.Strings(cols)
	return rows, cols, counts, skipped
}

func buildGroupedCount(t *table.Table, p Params, c *Chart) error {
	rows, cols, counts, skipped := crosstab(t, p)
	c.Skipped = skipped
	for _, r := range rows {
		for _, cl := range cols {
			if n := counts[[2]string{r, cl}]; n > 0 {
				c.Bars = append(c.Bars, Bar{Category: r, Group: cl, Value: float64(n)})
			}
		}
	}
	return nil
}

func buildCrosstab(t *table.Table, p Params, c *Chart) error {
	rows, cols, counts, skipped := crosstab(t, p)
	c.Skipped = skipped
	m := &Matrix{Rows: rows, Columns: cols, Values: make([][]*float64, len(rows))}
	for i, r := range rows {
		m.Values[i] = make([]*float64, len(cols))
		for j, cl := range cols {
			v := float64(counts[[2]string{r, cl}])
			m.Values[i][j] = &v
		}
	}
	c.Matrix = m
	return nil
}
