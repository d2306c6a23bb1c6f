package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/prospector/pkg/prospector/engine"
	"github.com/cognicore/prospector/pkg/prospector/ingest"
)

func TestTopExclusionsOrderedAndCapped(t *testing.T) {
	a := NewAnalyzer()
	for i := 0; i < 12; i++ {
		a.Exclude(fmt.Sprintf("r%02d", i), i+1)
	}
	a.Exclude("r00", 20)
	a.Exclude("ignored", 0)

	top := a.TopExclusions(MaxTopExclusions)
	require.Len(t, top, MaxTopExclusions)
	assert.Equal(t, ReasonCount{Reason: "r00", Removed: 21}, top[0])
	assert.Equal(t, ReasonCount{Reason: "r11", Removed: 12}, top[1])
	assert.Equal(t, "r03", top[9].Reason)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Removed, top[i].Removed)
	}
}

func TestTopExclusionsTiesKeepFirstRecorded(t *testing.T) {
	a := NewAnalyzer()
	a.Exclude("b", 2)
	a.Exclude("a", 2)
	assert.Equal(t, []ReasonCount{{"b", 2}, {"a", 2}}, a.TopExclusions(10))
}

func TestAddRuleStats(t *testing.T) {
	a := NewAnalyzer()
	a.AddRuleStats(engine.RunStats{Rules: []engine.RuleStat{
		{ID: "exclure_rh", Removed: 3},
		{ID: "score_ceo", Matched: 5},
		{ID: "seuil", Removed: 7},
	}})
	a.Exclude("exclusion_heuristique", 1)

	assert.Equal(t, []ReasonCount{
		{Reason: "seuil", Removed: 7},
		{Reason: "exclure_rh", Removed: 3},
		{Reason: "exclusion_heuristique", Removed: 1},
	}, a.TopExclusions(MaxTopExclusions))
}

func TestScoreDistribution(t *testing.T) {
	a := NewAnalyzer()
	a.Observe([]ingest.Row{{Score: 2}, {Score: 0}, {Score: 2}, {Score: -1}})

	assert.Equal(t, []ScoreBucket{{-1, 1}, {0, 1}, {2, 2}}, a.ScoreDistribution())
}

func TestCountEmpty(t *testing.T) {
	raw := ingest.RawTable{
		Columns: []string{"Name", "Title"},
		Records: []ingest.Record{
			{"Name": "A", "Title": "  "},
			{"Name": "", "Title": "CEO"},
			{"Name": "C"},
		},
	}
	n, ok := CountEmpty(raw, "Title")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = CountEmpty(raw, "URL")
	assert.False(t, ok)

	assert.Equal(t, 1, CountEmptyTitles([]ingest.Row{{Title: " "}, {Title: "CEO"}}))
}

func TestSummarize(t *testing.T) {
	lo, hi := 0, 4
	stats := engine.RunStats{TotalStart: 5, TotalEnd: 3, ScoreMin: &lo, ScoreMax: &hi, ScoreNonZero: 2,
		Rules: []engine.RuleStat{{ID: "x", Removed: 2}}}

	a := NewAnalyzer()
	a.AddRuleStats(stats)
	a.Observe([]ingest.Row{{Score: 0}, {Score: 4}, {Score: 4}})

	s := a.Summarize(stats, 2, EmptyCounts{Title: 1})
	assert.Equal(t, 5, s.TotalStart)
	assert.Equal(t, 3, s.TotalEnd)
	assert.Equal(t, 2, s.Recommended)
	assert.Equal(t, 4, *s.ScoreMax)
	assert.Equal(t, []ReasonCount{{"x", 2}}, s.TopExclusions)
	assert.Equal(t, []ScoreBucket{{0, 1}, {4, 2}}, s.ScoreDistribution)
	assert.Equal(t, 1, s.Empty.Title)
}
