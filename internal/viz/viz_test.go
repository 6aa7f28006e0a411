package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/wrangle/internal/table"
)

func sales() *table.Table {
	return table.MustNew(
		table.NewColumn("region", table.Text, "north", "south", "north", "east", "south", nil),
		table.NewColumn("channel", table.Text, "web", "store", "store", "web", "web", "web"),
		table.NewColumn("units", table.Int, int64(1), int64(2), int64(3), int64(4), int64(5), int64(6)),
		table.NewColumn("revenue", table.Float, 2.0, 4.0, 6.0, 8.0, 10.0, nil),
		table.NewColumn("cost", table.Float, 1.0, 1.5, 2.0, 2.5, 3.0, 3.5),
	)
}

func kinds(opts []Option) []Kind {
	if len(opts) == 0 {
		return nil
	}
	out := make([]Kind, len(opts))
	for i, o := range opts {
		out[i] = o.Kind
	}
	return out
}

func TestAvailable(t *testing.T) {
	tbl := sales()
	tests := []struct {
		name string
		mode Mode
		p    Params
		want []Kind
	}{
		{"numeric univariate", Univariate, Params{X: "units"}, []Kind{Histogram, BoxPlot, KDE}},
		{"categorical univariate", Univariate, Params{X: "region"}, []Kind{CountPlot, PieChart}},
		{"numeric pair", Bivariate, Params{X: "units", Y: "revenue"}, []Kind{Scatter, LinePlot, RegPlot, Hexbin}},
		{"mixed pair", Bivariate, Params{X: "revenue", Y: "region"}, []Kind{BoxPlot, ViolinPlot, BarMean}},
		{"categorical pair", Bivariate, Params{X: "region", Y: "channel"}, []Kind{GroupedCount, Crosstab}},
		{"same column twice", Bivariate, Params{X: "units", Y: "units"}, nil},
		{"unknown column", Univariate, Params{X: "nope"}, nil},
		{"numeric set", Multivariate, Params{Columns: []string{"units", "revenue"}}, []Kind{CorrHeatmap, PairPlot}},
		{"category path", Multivariate, Params{Columns: []string{"region", "channel"}}, []Kind{Treemap, Sunburst}},
		{"bubble", Multivariate, Params{X: "units", Y: "revenue", Size: "cost"}, []Kind{Bubble}},
		{"3d", Multivariate, Params{X: "units", Y: "revenue", Z: "cost"}, []Kind{Scatter3D}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(Available(tbl, tt.mode, tt.p)))
		})
	}
}

func TestLegendColumns(t *testing.T) {
	assert.Equal(t, []string{"region", "channel"}, LegendColumns(sales()))

	many := make([]any, MaxHueValues)
	for i := range many {
		many[i] = string(rune('a' + i))
	}
	wide := table.MustNew(table.NewColumn("code", table.Text, many...))
	assert.Empty(t, LegendColumns(wide))
}

func TestBuild_Errors(t *testing.T) {
	tbl := sales()

	_, err := Build(tbl, Univariate, Scatter, Params{X: "units"})
	require.ErrorIs(t, err, ErrUnknownChart)

	_, err = Build(tbl, Univariate, Histogram, Params{X: "region"})
	require.ErrorIs(t, err, ErrChartParams)

	_, err = Build(tbl, Bivariate, Scatter, Params{X: "units", Y: "revenue", Hue: "cost"})
	require.ErrorIs(t, err, ErrChartParams)
}

func TestHistogram(t *testing.T) {
	c, err := Build(sales(), Univariate, Histogram, Params{X: "revenue"})
	require.NoError(t, err)
	assert.Equal(t, "Histogram", c.Title)
	assert.Len(t, c.Bins, histogramBins)
	total := 0
	for _, b := range c.Bins {
		total += b.Count
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, 1, c.Skipped)
}

func TestBoxStats(t *testing.T) {
	b, ok := boxStats("x", []float64{1, 2, 3, 4, 100})
	require.True(t, ok)
	assert.Equal(t, 5, b.Count)
	assert.Equal(t, 2.0, b.Q1)
	assert.Equal(t, 3.0, b.Median)
	assert.Equal(t, 4.0, b.Q3)
	assert.Equal(t, 1.0, b.Low)
	assert.Equal(t, 4.0, b.High)
	assert.Equal(t, []float64{100}, b.Outliers)

	assert.Equal(t, 2.5, quantile([]float64{1, 2, 3, 4}, 0.5))
	assert.Equal(t, 1.75, quantile([]float64{1, 2, 3, 4}, 0.25))

	_, ok = boxStats("x", nil)
	assert.False(t, ok)
}

func TestKDE(t *testing.T) {
	c, err := Build(sales(), Univariate, KDE, Params{X: "units"})
	require.NoError(t, err)
	require.Len(t, c.Curve, kdePoints)
	for _, pt := range c.Curve {
		assert.GreaterOrEqual(t, pt.Y, 0.0)
	}
	assert.Less(t, c.Curve[0].X, 1.0)
	assert.Greater(t, c.Curve[kdePoints-1].X, 6.0)
}

func TestPie_FoldsSmallCategories(t *testing.T) {
	values := make([]any, 0, 12)
	for i := range 12 {
		values = append(values, string(rune('a'+i)))
	}
	values = append(values, "a")
	tbl := table.MustNew(table.NewColumn("letter", table.Text, values...))

	c, err := Build(tbl, Univariate, PieChart, Params{X: "letter"})
	require.NoError(t, err)
	require.Len(t, c.Counts, TopCategories+1)
	assert.Equal(t, "a", c.Counts[0].Value)
	assert.Equal(t, 2, c.Counts[0].Count)
	assert.Equal(t, "Other", c.Counts[TopCategories].Value)
	assert.Equal(t, 2, c.Counts[TopCategories].Count)
}

func TestScatter_WithHue(t *testing.T) {
	c, err := Build(sales(), Bivariate, Scatter, Params{X: "units", Y: "revenue", Hue: "channel"})
	require.NoError(t, err)
	require.Len(t, c.Series, 2)
	assert.Equal(t, "web", c.Series[0].Name)
	assert.Equal(t, []Point{{X: 1, Y: 2}, {X: 4, Y: 8}, {X: 5, Y: 10}}, c.Series[0].Points)
	assert.Equal(t, "store", c.Series[1].Name)
	assert.Equal(t, 1, c.Skipped)
}

func TestRegression(t *testing.T) {
	c, err := Build(sales(), Bivariate, RegPlot, Params{X: "units", Y: "revenue"})
	require.NoError(t, err)
	require.NotNil(t, c.Fit)
	assert.InDelta(t, 0.0, c.Fit.Intercept, 1e-9)
	assert.InDelta(t, 2.0, c.Fit.Slope, 1e-9)
	assert.InDelta(t, 1.0, c.Fit.RSquared, 1e-9)
}

func TestHexbin_CountsEveryPoint(t *testing.T) {
	c, err := Build(sales(), Bivariate, Hexbin, Params{X: "units", Y: "cost"})
	require.NoError(t, err)
	total := 0
	for _, cell := range c.Cells {
		total += cell.Count
	}
	assert.Equal(t, 6, total)
}

func TestBoxByGroup_EitherOrder(t *testing.T) {
	a, err := Build(sales(), Bivariate, BoxPlot, Params{X: "channel", Y: "units"})
	require.NoError(t, err)
	b, err := Build(sales(), Bivariate, BoxPlot, Params{X: "units", Y: "channel"})
	require.NoError(t, err)
	assert.Equal(t, a.Boxes, b.Boxes)
	require.Len(t, a.Boxes, 2)
	assert.Equal(t, "web", a.Boxes[0].Group)
	assert.Equal(t, 4, a.Boxes[0].Count)
}

func TestBarMean(t *testing.T) {
	c, err := Build(sales(), Bivariate, BarMean, Params{X: "region", Y: "units"})
	require.NoError(t, err)
	assert.Equal(t, []Bar{
		{Category: "north", Value: 2},
		{Category: "south", Value: 3.5},
		{Category: "east", Value: 4},
	}, c.Bars)
	assert.Equal(t, 1, c.Skipped)
}

func TestCrosstab(t *testing.T) {
	c, err := Build(sales(), Bivariate, Crosstab, Params{X: "region", Y: "channel"})
	require.NoError(t, err)
	require.NotNil(t, c.Matrix)
	assert.Equal(t, []string{"east", "north", "south"}, c.Matrix.Rows)
	assert.Equal(t, []string{"store", "web"}, c.Matrix.Columns)
	assert.Equal(t, 1.0, *c.Matrix.Values[1][0])
	assert.Equal(t, 1.0, *c.Matrix.Values[1][1])
	assert.Equal(t, 0.0, *c.Matrix.Values[0][0])

	g, err := Build(sales(), Bivariate, GroupedCount, Params{X: "region", Y: "channel"})
	require.NoError(t, err)
	assert.Len(t, g.Bars, 5)
}

func TestCorrelation(t *testing.T) {
	c, err := Build(sales(), Multivariate, CorrHeatmap, Params{Columns: []string{"units", "revenue"}})
	require.NoError(t, err)
	require.NotNil(t, c.Matrix.Values[0][1])
	assert.InDelta(t, 1.0, *c.Matrix.Values[0][1], 1e-9)
}

func TestPair(t *testing.T) {
	c, err := Build(sales(), Multivariate, PairPlot, Params{Columns: []string{"units", "revenue", "cost"}})
	require.NoError(t, err)
	require.Len(t, c.Facets, 3)
	assert.Equal(t, "revenue vs units", c.Facets[0].Label)
	assert.Len(t, c.Facets[0].Points, 5)
	assert.Len(t, c.Facets[1].Points, 6)
}

func TestBubble(t *testing.T) {
	c, err := Build(sales(), Multivariate, Bubble, Params{X: "units", Y: "revenue", Size: "cost"})
	require.NoError(t, err)
	require.Len(t, c.Series, 1)
	assert.Equal(t, Point{X: 1, Y: 2, Size: 1}, c.Series[0].Points[0])
}

func TestFacet(t *testing.T) {
	c, err := Build(sales(), Multivariate, FacetGrid, Params{X: "units", Y: "cost", Hue: "region"})
	require.NoError(t, err)
	require.Len(t, c.Facets, 3)
	assert.Equal(t, "east", c.Facets[0].Label)
	assert.Equal(t, 1, c.Skipped)
}

func TestHierarchy(t *testing.T) {
	c, err := Build(sales(), Multivariate, Treemap, Params{Columns: []string{"region", "channel"}, Size: "units"})
	require.NoError(t, err)
	assert.Equal(t, []Node{
		{Path: []string{"east", "web"}, Value: 4},
		{Path: []string{"north", "store"}, Value: 3},
		{Path: []string{"north", "web"}, Value: 1},
		{Path: []string{"south", "store"}, Value: 2},
		{Path: []string{"south", "web"}, Value: 5},
	}, c.Nodes)
	assert.Equal(t, 1, c.Skipped)

	counts, err := Build(sales(), Multivariate, Sunburst, Params{Columns: []string{"channel"}})
	require.NoError(t, err)
	assert.Equal(t, []Node{{Path: []string{"store"}, Value: 2}, {Path: []string{"web"}, Value: 4}}, counts.Nodes)
}
