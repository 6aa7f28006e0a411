package profile

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// NumericStats summarizes a numeric column. Quartiles use the empirical
// distribution of the non-null values.
type NumericStats struct {
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Min       float64 `json:"min"`
	Q25       float64 `json:"q25"`
	Median    float64 `json:"median"`
	Q75       float64 `json:"q75"`
	Max       float64 `json:"max"`
	Sum       float64 `json:"sum"`
	Skewness  float64 `json:"skewness"`
	Zeros     int     `json:"zeros"`
	Negative  int     `json:"negative"`
	Histogram []Bin   `json:"histogram"`
}

// Bin is one histogram bucket covering [Lo, Hi).
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// ValueCount pairs a display value with its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalStats summarizes a text or boolean column.
type CategoricalStats struct {
	Top  []ValueCount `json:"top"`
	Mode string       `json:"mode"`
}

// TemporalStats summarizes a date/time column.
type TemporalStats struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// Numeric computes NumericStats, or nil when the column holds no numbers.
func Numeric(c *table.Column) *NumericStats {
	xs := c.Floats()
	if len(xs) == 0 {
		return nil
	}
	sort.Float64s(xs)
	s := &NumericStats{
		Mean:      stat.Mean(xs, nil),
		Min:       xs[0],
		Q25:       stat.Quantile(0.25, stat.Empirical, xs, nil),
		Median:    stat.Quantile(0.5, stat.Empirical, xs, nil),
		Q75:       stat.Quantile(0.75, stat.Empirical, xs, nil),
		Max:       xs[len(xs)-1],
		Sum:       floats.Sum(xs),
		Histogram: Histogram(xs, HistogramBins),
	}
	if len(xs) > 1 {
		s.Std = stat.StdDev(xs, nil)
	}
	if len(xs) > 2 && s.Std > 0 {
		s.Skewness = stat.Skew(xs, nil)
	}
	for _, x := range xs {
		switch {
		case x == 0:
			s.Zeros++
		case x < 0:
			s.Negative++
		}
	}
	return s
}

// Histogram buckets xs into n equal-width bins spanning its range. The
// last bin includes the maximum.
func Histogram(xs []float64, n int) []Bin {
	if len(xs) == 0 || n < 1 {
		return nil
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	dividers := floats.Span(make([]float64, n+1), lo, hi)
	// stat.Histogram treats the top divider as exclusive.
	top := dividers[n]
	dividers[n] = math.Nextafter(top, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: int(counts[i])}
	}
	bins[n-1].Hi = top
	return bins
}

// Categorical returns the most frequent values, at most limit of them,
// ordered by descending count then value.
func Categorical(c *table.Column, limit int) *CategoricalStats {
	counts := ValueCounts(c)
	s := &CategoricalStats{}
	if len(counts) > 0 {
		s.Mode = counts[0].Value
	}
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	s.Top = counts
	return s
}

// ValueCounts counts the non-null display values of c, most frequent first.
func ValueCounts(c *table.Column) []ValueCount {
	idx := make(map[string]int)
	var out []ValueCount
	for i := range c.Values {
		if c.IsNull(i) {
			continue
		}
		v := c.Format(i)
		if k, ok := idx[v]; ok {
			out[k].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, ValueCount{Value: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Temporal returns the range of a time column, or nil when it is all null.
func Temporal(c *table.Column) *TemporalStats {
	var s *TemporalStats
	for _, v := range c.Values {
		tm, ok := v.(time.Time)
		if !ok {
			continue
		}
		if s == nil {
			s = &TemporalStats{Min: tm, Max: tm}
			continue
		}
		if tm.Before(s.Min) {
			s.Min = tm
		}
		if tm.After(s.Max) {
			s.Max = tm
		}
	}
	return s
}

// Correlation is a Pearson correlation matrix over numeric columns. A nil
// entry means the pair has fewer than two complete rows or no variance.
type Correlation struct {
	Columns []string     `json:"columns"`
	Matrix  [][]*float64 `json:"matrix"`
}

// Correlations computes pairwise Pearson correlations over the numeric
// columns of t, using the rows where both values are present. It returns
// nil when t has fewer than two numeric columns.
func Correlations(t *table.Table) *Correlation {
	names := t.ColumnsOf(table.Type.Numeric)
	if len(names) < 2 {
		return nil
	}
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		cols[i], _ = t.Column(n)
	}

	m := make([][]*float64, len(cols))
	for i := range m {
		m[i] = make([]*float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r, ok := Pearson(cols[i], cols[j])
			if !ok {
				continue
			}
			m[i][j], m[j][i] = &r, &r
		}
	}
	return &Correlation{Columns: names, Matrix: m}
}

// Pearson correlates two numeric columns over their complete rows.
func Pearson(a, b *table.Column) (float64, bool) {
	var xs, ys []float64
	for i := range a.Values {
		x, okx := a.Float(i)
		y, oky := b.Float(i)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return 0, false
	}
	return stat.Correlation(xs, ys, nil), true
}
