package core

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/wrangle/internal/ingest"
	"github.com/JonMunkholm/wrangle/internal/ops"
	"github.com/JonMunkholm/wrangle/internal/table"
	"github.com/JonMunkholm/wrangle/internal/viz"
)

func orders() *table.Table {
	return table.MustNew(
		table.NewColumn("id", table.Int, int64(1), int64(2), int64(2), int64(3)),
		table.NewColumn("region", table.Text, "north", "south", "south", nil),
		table.NewColumn("amount", table.Text, "10", "20", "20", "x"),
		table.NewColumn("score", table.Float, 1.5, nil, nil, 4.5),
	)
}

func testSession(t *testing.T, tbl *table.Table) *Session {
	t.Helper()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return newSession("s-1", tbl, ingest.Source{Name: "orders.csv", Format: "csv"}, func() time.Time { return clock })
}

func params(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestSession_NavigateDoesNotTouchStore(t *testing.T) {
	s := testSession(t, orders())
	before := s.State()

	for _, step := range Steps {
		require.NoError(t, s.Navigate(step))
		assert.Equal(t, step, s.Step())
	}
	assert.ErrorIs(t, s.Navigate(Step("bogus")), ErrUnknownStep)

	after := s.State()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Depth, after.Depth)
	assert.Equal(t, StepProfile, after.Step)
}

func TestSession_State(t *testing.T) {
	st := testSession(t, orders()).State()
	assert.Equal(t, "s-1", st.ID)
	assert.Equal(t, StepOverview, st.Step)
	assert.Equal(t, 4, st.Rows)
	assert.Equal(t, 4, st.Cols)
	assert.Equal(t, 1, st.Duplicates)
	assert.Equal(t, ColumnInfo{Name: "region", Type: "text", Nulls: 1}, st.Columns[1])
	require.Len(t, st.Preview, 4)
	assert.Equal(t, []string{"3", "", "x", "4.5"}, st.Preview[3])
}

func TestSession_ApplyCommits(t *testing.T) {
	ctx := context.Background()
	s := testSession(t, orders())

	out, err := s.Apply(ctx, "dedupe", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, out.Status)
	assert.True(t, out.Changed)
	assert.Equal(t, 1, out.Affected)
	assert.Equal(t, "1 duplicate rows removed successfully.", out.Message)
	assert.Equal(t, uint64(1), out.Version)
	assert.Equal(t, 1, out.Depth)
	assert.Equal(t, 3, s.Table().NumRows())

	again, err := s.Apply(ctx, "dedupe", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, again.Status)
	assert.False(t, again.Changed)
	assert.Equal(t, "No duplicate rows found.", again.Message)
	assert.Equal(t, uint64(1), again.Version)
	assert.Equal(t, 1, again.Depth)
}

func TestSession_FailedOperatorLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	s := testSession(t, orders())
	before := s.Table()

	_, err := s.Apply(ctx, "convert", params(t, ops.ConvertParams{Column: "amount", Target: ops.TargetInt}))
	require.ErrorIs(t, err, ops.ErrConversion)

	_, err = s.Apply(ctx, "nope", nil)
	require.ErrorIs(t, err, ops.ErrUnknownOperator)

	_, err = s.Apply(ctx, "clean", []byte(`{"column":"score","strategy":"drop","extra":1}`))
	require.ErrorIs(t, err, ops.ErrInvalidParams)

	st := s.State()
	assert.Equal(t, uint64(0), st.Version)
	assert.Equal(t, 0, st.Depth)
	assert.Same(t, before, s.Table())
}

func TestSession_MeanOnTextIsNotApplied(t *testing.T) {
	s := testSession(t, orders())
	out, err := s.Apply(context.Background(), "clean", params(t, ops.CleanParams{Column: "region", Strategy: ops.StrategyMean}))
	require.NoError(t, err)
	assert.Equal(t, StatusNotApplied, out.Status)
	assert.False(t, out.Changed)
	assert.Contains(t, out.Message, "mean fill needs a numeric column")
	assert.Equal(t, uint64(0), out.Version)
}

func TestSession_CleanStatusFlag(t *testing.T) {
	ctx := context.Background()

	clean := testSession(t, table.MustNew(table.NewColumn("a", table.Int, int64(1))))
	assert.Equal(t, CleanNoMissing, clean.CleanStatus().State)
	assert.Equal(t, "No missing values!", clean.CleanStatus().Message)

	s := testSession(t, orders())
	st := s.CleanStatus()
	require.Equal(t, CleanHasMissing, st.State)
	assert.Equal(t, []table.NullCount{{Column: "region", Nulls: 1}, {Column: "score", Nulls: 2}}, st.Columns)

	_, err := s.Apply(ctx, "clean", params(t, ops.CleanParams{Column: "region", Strategy: ops.StrategyDrop}))
	require.NoError(t, err)
	assert.Equal(t, CleanHasMissing, s.CleanStatus().State)

	_, err = s.Apply(ctx, "clean", params(t, ops.CleanParams{Column: "score", Strategy: ops.StrategyFfill}))
	require.NoError(t, err)

	first := s.CleanStatus()
	assert.Equal(t, CleanJustCleaned, first.State)
	assert.Equal(t, "Data is now cleaned.", first.Message)
	assert.Equal(t, CleanNoMissing, s.CleanStatus().State)
}

func TestSession_UndoReset(t *testing.T) {
	ctx := context.Background()
	s := testSession(t, orders())

	out := s.Undo(ctx)
	assert.False(t, out.Changed)
	assert.Equal(t, "Nothing to undo.", out.Message)
	assert.Equal(t, uint64(0), out.Version)

	_, err := s.Apply(ctx, "dedupe", nil)
	require.NoError(t, err)
	_, err = s.Apply(ctx, "clean", params(t, ops.CleanParams{Column: "region", Strategy: ops.StrategyDrop}))
	require.NoError(t, err)
	require.Equal(t, 2, s.Table().NumRows())

	out = s.Undo(ctx)
	assert.True(t, out.Changed)
	assert.Equal(t, 3, s.Table().NumRows())
	assert.Equal(t, 1, out.Depth)

	out = s.Reset(ctx)
	assert.True(t, out.Changed)
	assert.Equal(t, 0, out.Depth)
	assert.True(t, table.Equal(orders(), s.Table()))
}

func TestSession_PivotIsSideChannel(t *testing.T) {
	ctx := context.Background()
	s := testSession(t, orders())

	assert.Nil(t, s.Pivot())
	assert.ErrorIs(t, s.ExportPivot(&bytes.Buffer{}), ErrNoPivot)

	res, err := s.GeneratePivot(ops.SummaryParams{Rows: []string{"region"}, Values: []string{"score"}, Agg: ops.AggSum})
	require.NoError(t, err)
	version := s.State().Version

	_, err = s.Apply(ctx, "dedupe", nil)
	require.NoError(t, err)
	s.Undo(ctx)
	s.Reset(ctx)
	assert.Same(t, res, s.Pivot())
	assert.True(t, s.State().HasPivot)
	assert.Equal(t, version+3, s.State().Version)

	var buf bytes.Buffer
	require.NoError(t, s.ExportPivot(&buf))
	assert.Equal(t, "region,score\nnorth,1.5\nsouth,\n", buf.String())

	s.ClearPivot()
	assert.Nil(t, s.Pivot())
}

func TestSession_ProfileCachedByContent(t *testing.T) {
	ctx := context.Background()
	s := testSession(t, orders())

	r1, cached, err := s.GenerateProfile(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "orders.csv profile", r1.Title)

	r2, cached, err := s.GenerateProfile(ctx)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, r1, r2)

	_, err = s.Apply(ctx, "dedupe", nil)
	require.NoError(t, err)
	r3, cached, err := s.GenerateProfile(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotEqual(t, r1.Fingerprint, r3.Fingerprint)
	assert.Equal(t, 3, r3.Rows)

	// Undo brings back content with a different fingerprint from the
	// cached report, so it is regenerated rather than served stale.
	s.Undo(ctx)
	r4, cached, err := s.GenerateProfile(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, r1.Fingerprint, r4.Fingerprint)
	assert.Same(t, r4, s.Report())
}

func TestSession_ProfileCacheChecksContent(t *testing.T) {
	ctx := context.Background()
	s := testSession(t, orders())

	r1, _, err := s.GenerateProfile(ctx)
	require.NoError(t, err)

	// A different table whose digest matches the cached report must not be
	// served the stale report.
	other := table.MustNew(
		table.NewColumn("a", table.Text, "x\x1fsy", "x"),
		table.NewColumn("b", table.Text, "z", "y\x1fsz"),
	)
	require.True(t, s.store.Commit(other))
	s.report.Fingerprint = other.Fingerprint()

	r2, cached, err := s.GenerateProfile(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotSame(t, r1, r2)
	assert.Equal(t, []string{"a", "b"}, r2.SampleHeader)
	assert.Equal(t, 2, r2.Rows)
}

func TestSession_ExploratoryViewsDoNotCommit(t *testing.T) {
	s := testSession(t, orders())

	view, err := s.Filter(ops.FilterParams{Column: "region", Values: []string{"south"}})
	require.NoError(t, err)
	assert.Equal(t, 2, view.NumRows())

	grouped, err := s.Group(ops.GroupParams{By: "region", Measure: "id", Agg: ops.AggSum})
	require.NoError(t, err)
	assert.Equal(t, 2, grouped.NumRows())

	assert.NotEmpty(t, s.Charts(viz.Univariate, viz.Params{X: "score"}))
	chart, err := s.Chart(viz.Univariate, viz.Histogram, viz.Params{X: "score"})
	require.NoError(t, err)
	assert.Equal(t, 2, chart.Skipped)

	st := s.State()
	assert.Equal(t, uint64(0), st.Version)
	assert.Equal(t, 4, st.Rows)
}

func TestSession_Export(t *testing.T) {
	s := testSession(t, orders())
	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf, ingest.FormatCSV))
	assert.Equal(t, "id,region,amount,score\n1,north,10,1.5\n2,south,20,\n2,south,20,\n3,,x,4.5\n", buf.String())
}
