package viz

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/JonMunkholm/wrangle/internal/profile"
	"github.com/JonMunkholm/wrangle/internal/table"
)

const (
	histogramBins = 20
	kdePoints     = 100
)

func init() {
	register(Univariate, Histogram, "Histogram", fitsX(numeric), buildHistogram)
	register(Univariate, BoxPlot, "Box plot", fitsX(numeric), buildBoxX)
	register(Univariate, KDE, "Density (KDE)", fitsX(numeric), buildKDE)
	register(Univariate, CountPlot, "Count plot", fitsX(nonNumeric), buildCount)
	register(Univariate, PieChart, "Pie chart", fitsX(nonNumeric), buildPie)
}

func fitsX(want func(table.Type) bool) func(*table.Table, Params) bool {
	return func(t *table.Table, p Params) bool {
		_, ok := column(t, p.X, want)
		return ok
	}
}

func mustColumn(t *table.Table, name string) *table.Column {
	c, _ := t.Column(name)
	return c
}

func buildHistogram(t *table.Table, p Params, c *Chart) error {
	xs := mustColumn(t, p.X).Floats()
	c.Bins = profile.Histogram(xs, histogramBins)
	c.Skipped = t.NumRows() - len(xs)
	return nil
}

func buildBoxX(t *table.Table, p Params, c *Chart) error {
	xs := mustColumn(t, p.X).Floats()
	c.Skipped = t.NumRows() - len(xs)
	if b, ok := boxStats(p.X, xs); ok {
		c.Boxes = []Box{b}
	}
	return nil
}

func buildKDE(t *table.Table, p Params, c *Chart) error {
	xs := mustColumn(t, p.X).Floats()
	c.Skipped = t.NumRows() - len(xs)
	c.Curve = density(xs, kdePoints)
	return nil
}

func buildCount(t *table.Table, p Params, c *Chart) error {
	col := mustColumn(t, p.X)
	c.Counts = profile.ValueCounts(col)
	c.Skipped = col.NullCount()
	return nil
}

// buildPie keeps the largest categories and folds the rest into "Other".
func buildPie(t *table.Table, p Params, c *Chart) error {
	col := mustColumn(t, p.X)
	counts := profile.ValueCounts(col)
	if len(counts) > TopCategories {
		other := 0
		for _, vc := range counts[TopCategories:] {
			other += vc.Count
		}
		counts = append(counts[:TopCategories:TopCategories], profile.ValueCount{Value: "Other", Count: other})
	}
	c.Counts = counts
	c.Skipped = col.NullCount()
	return nil
}

// boxStats computes a five-number summary. Whiskers reach the most extreme
// values within 1.5 IQR of the quartiles; values beyond are outliers.
func boxStats(group string, xs []float64) (Box, bool) {
	if len(xs) == 0 {
		return Box{}, false
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	b := Box{
		Group:  group,
		Count:  len(sorted),
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
	}
	iqr := b.Q3 - b.Q1
	lo, hi := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.Low, b.High = math.Inf(1), math.Inf(-1)
	for _, x := range sorted {
		if x < lo || x > hi {
			b.Outliers = append(b.Outliers, x)
			continue
		}
		b.Low = math.Min(b.Low, x)
		b.High = math.Max(b.High, x)
	}
	return b, true
}

// quantile interpolates linearly between the closest ranks at (n-1)p.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// density estimates a Gaussian kernel density over n evenly spaced points
// using Scott's rule for the bandwidth.
func density(xs []float64, n int) []Point {
	if len(xs) < 2 {
		return nil
	}
	sd := stat.StdDev(xs, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil
	}
	bw := sd * math.Pow(float64(len(xs)), -0.2)
	lo, hi := floats.Min(xs)-3*bw, floats.Max(xs)+3*bw
	grid := floats.Span(make([]float64, n), lo, hi)

	kernel := distuv.Normal{Mu: 0, Sigma: bw}
	out := make([]Point, n)
	for i, g := range grid {
		var sum float64
		for _, x := range xs {
			sum += kernel.Prob(g - x)
		}
		out[i] = Point{X: g, Y: sum / float64(len(xs))}
	}
	return out
}
