package table

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Table {
	return MustNew(
		NewColumn("id", Int, int64(1), int64(2), int64(3)),
		NewColumn("city", Text, "Paris", nil, "Oslo"),
		NewColumn("temp", Float, 21.5, 18.0, nil),
	)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cols    []*Column
		wantErr error
	}{
		{
			name:    "length mismatch",
			cols:    []*Column{NewColumn("a", Int, int64(1)), NewColumn("b", Int)},
			wantErr: ErrLengthMismatch,
		},
		{
			name:    "duplicate name",
			cols:    []*Column{NewColumn("a", Int, int64(1)), NewColumn("a", Int, int64(2))},
			wantErr: ErrDuplicateColumn,
		},
		{
			name:    "wrong cell type",
			cols:    []*Column{NewColumn("a", Int, 1.5)},
			wantErr: ErrTypeMismatch,
		},
		{
			name:    "empty name",
			cols:    []*Column{NewColumn("", Text, "x")},
			wantErr: ErrEmptyColumnName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cols...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTable_ShapeAndNulls(t *testing.T) {
	tbl := sample()
	rows, cols := tbl.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"id", "city", "temp"}, tbl.Names())
	assert.Equal(t, []NullCount{{Column: "city", Nulls: 1}, {Column: "temp", Nulls: 1}}, tbl.NullReport())
	assert.Equal(t, []string{"city", "temp"}, tbl.ColumnsWithNulls())
	assert.Equal(t, []string{"id", "temp"}, tbl.ColumnsOf(Type.Numeric))
}

func TestEqual(t *testing.T) {
	a := sample()
	assert.True(t, Equal(a, a.Clone()))

	b := MustNew(
		NewColumn("id", Int, int64(1), int64(2), int64(3)),
		NewColumn("city", Text, "Paris", nil, "Oslo"),
		NewColumn("temp", Float, 21.5, 18.0, 1.0),
	)
	assert.False(t, Equal(a, b))

	renamed := MustNew(a.Columns()[0].Rename("key"), a.Columns()[1], a.Columns()[2])
	assert.False(t, Equal(a, renamed))

	retyped := MustNew(NewColumn("id", Float, 1.0, 2.0, 3.0), a.Columns()[1], a.Columns()[2])
	assert.False(t, Equal(a, retyped))

	nan := MustNew(NewColumn("x", Float, math.NaN()))
	assert.True(t, Equal(nan, nan.Clone()))

	utc := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	t1 := MustNew(NewColumn("at", Time, utc))
	t2 := MustNew(NewColumn("at", Time, utc.In(time.FixedZone("X", 3600))))
	assert.True(t, Equal(t1, t2))
}

func TestClone_IsIndependent(t *testing.T) {
	a := sample()
	c := a.Clone()
	c.Columns()[0].Values[0] = int64(99)
	assert.Equal(t, int64(1), a.Columns()[0].Values[0])
}

func TestFingerprint(t *testing.T) {
	a := sample()
	assert.Equal(t, a.Fingerprint(), a.Clone().Fingerprint())

	b, err := a.WithColumn(NewColumn("temp", Float, 21.5, 18.0, 0.0))
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	neg := MustNew(NewColumn("z", Float, math.Copysign(0, -1)))
	pos := MustNew(NewColumn("z", Float, 0.0))
	assert.True(t, Equal(neg, pos))
	assert.Equal(t, neg.Fingerprint(), pos.Fingerprint())
}

func TestRowKey_DistinguishesTypes(t *testing.T) {
	tbl := MustNew(
		NewColumn("a", Text, "1", nil),
		NewColumn("b", Int, int64(1), int64(1)),
	)
	k0 := tbl.RowKey(0, []int{0})
	k1 := tbl.RowKey(1, []int{0})
	assert.NotEqual(t, k0, k1)
	assert.NotEqual(t, tbl.RowKey(0, []int{0}), tbl.RowKey(0, []int{1}))
}

func TestRowKey(t *testing.T) {
	tbl := MustNew(
		NewColumn("a", Text, "x\x1fsy", "x"),
		NewColumn("b", Text, "z", "y\x1fsz"),
	)
	all := tbl.AllColumns()
	assert.NotEqual(t, tbl.RowKey(0, all), tbl.RowKey(1, all))

	split := MustNew(
		NewColumn("a", Text, "ab", "a"),
		NewColumn("b", Text, "c", "bc"),
	)
	assert.NotEqual(t, split.RowKey(0, split.AllColumns()), split.RowKey(1, split.AllColumns()))

	old := time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	when := MustNew(NewColumn("t", Time, old, recent, old))
	assert.NotEqual(t, when.RowKey(0, []int{0}), when.RowKey(1, []int{0}))
	assert.Equal(t, when.RowKey(0, []int{0}), when.RowKey(2, []int{0}))
}

func TestFingerprint_SeparatorBytes(t *testing.T) {
	a := MustNew(
		NewColumn("a", Text, "x\x1fsy"),
		NewColumn("b", Text, "z"),
	)
	b := MustNew(
		NewColumn("a", Text, "x"),
		NewColumn("b", Text, "y\x1fsz"),
	)
	assert.False(t, Equal(a, b))
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestTakeAndHead(t *testing.T) {
	tbl := sample()
	sub := tbl.Take([]int{2, 0})
	assert.Equal(t, []any{int64(3), "Oslo", nil}, sub.Row(0))
	assert.Equal(t, 2, tbl.Head(2).NumRows())
	assert.Equal(t, 3, tbl.Head(10).NumRows())
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(int64(1), int64(2)))
	assert.Equal(t, 1, Compare(nil, "a"))
	assert.Equal(t, -1, Compare("a", nil))
	assert.Equal(t, 0, Compare(true, true))
	assert.Equal(t, -1, Compare(false, true))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "2.5", FormatValue(2.5))
	assert.Equal(t, "10", FormatValue(float64(10)))
	assert.Equal(t, "2024-03-01", FormatValue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-01T08:30:00Z", FormatValue(time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)))
}
