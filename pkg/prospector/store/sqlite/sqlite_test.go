package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/prospector/pkg/prospector/store"
)

func openTemp(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "prospects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	n, err := st.UpsertProspects(ctx, "run-1", []store.Prospect{
		{URL: "https://linkedin.com/in/alice", Name: "Alice", Title: "CEO", Sector: "tech", Score: 4, DecisionMaker: true, Recommended: true, Email: "alice@example.com"},
		{URL: "", Name: "No URL"},
		{URL: "https://linkedin.com/in/alice", Name: "Alice again"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, found, err := st.GetProspect(ctx, "https://linkedin.com/in/alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, 4, p.Score)
	assert.True(t, p.DecisionMaker)
	assert.True(t, p.Recommended)
	assert.Equal(t, "run-1", p.RunID)
	assert.False(t, p.UpdatedAt.IsZero())

	_, found, err = st.GetProspect(ctx, "https://linkedin.com/in/nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpsertUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	_, err := st.UpsertProspects(ctx, "run-1", []store.Prospect{{URL: "u1", Name: "Alice", Score: 1}})
	require.NoError(t, err)
	_, err = st.UpsertProspects(ctx, "run-2", []store.Prospect{{URL: "u1", Name: "Alice B", Score: 3, Recommended: true}})
	require.NoError(t, err)

	p, found, err := st.GetProspect(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Alice B", p.Name)
	assert.Equal(t, 3, p.Score)
	assert.Equal(t, "run-2", p.RunID)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestListProspectsFilters(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	_, err := st.UpsertProspects(ctx, "run-1", []store.Prospect{
		{URL: "a", Segment: "business", Sector: "immobilier", Score: 2, Recommended: true},
		{URL: "b", Segment: "tech", Sector: "tech", Score: 5, Recommended: true},
		{URL: "c", Segment: "business", Sector: "tech", Score: 5},
		{URL: "d", Segment: "business", Sector: "immobilier", Score: 1, Recommended: true},
	})
	require.NoError(t, err)

	all, err := st.ListProspects(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"b", "c", "a", "d"}, urls(all))

	business, err := st.ListProspects(ctx, store.Filter{Segment: "business", RecommendedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d"}, urls(business))

	top, err := st.ListProspects(ctx, store.Filter{Sector: "tech", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, urls(top))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	_, err := st.UpsertProspects(ctx, "run-1", []store.Prospect{
		{URL: "a", Sector: "tech", Email: "a@example.com"},
		{URL: "b", Sector: "tech"},
		{URL: "c"},
	})
	require.NoError(t, err)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.WithEmail)
	assert.Equal(t, map[string]int{"tech": 2, "": 1}, stats.BySector)
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, st.RecordRun(ctx, store.Run{ID: "01A", Input: "a.csv", StartedAt: start, FinishedAt: start.Add(time.Second), RowsIn: 10, RowsOut: 4, Recommended: 2}))
	require.NoError(t, st.RecordRun(ctx, store.Run{ID: "01B", Input: "b.csv", StartedAt: start, FinishedAt: start, RowsIn: 3}))

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "01B", runs[0].ID)
	assert.Equal(t, "01A", runs[1].ID)
	assert.Equal(t, 4, runs[1].RowsOut)
	assert.True(t, runs[1].FinishedAt.Equal(start.Add(time.Second)))

	latest, err := st.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "b.csv", latest[0].Input)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prospects.db")

	st, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = st.UpsertProspects(ctx, "run-1", []store.Prospect{{URL: "a", Name: "Alice"}})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer st.Close()
	_, found, err := st.GetProspect(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
}

func urls(ps []store.Prospect) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.URL)
	}
	return out
}
