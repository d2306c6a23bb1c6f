package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/prospector/pkg/prospector/analytics"
	"github.com/cognicore/prospector/pkg/prospector/engine"
)

func TestNewIDIsMonotonic(t *testing.T) {
	b := NewBuilder()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	first, second := b.NewID(), b.NewID()
	assert.Len(t, first, 26)
	assert.Less(t, first, second)

	ts, err := Time(first)
	require.NoError(t, err)
	assert.True(t, ts.Equal(fixed))
}

func TestTimeRejectsGarbage(t *testing.T) {
	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}

func TestWriteText(t *testing.T) {
	lo, hi := 0, 2
	summary := analytics.Summary{
		TotalStart: 3, TotalEnd: 2, Recommended: 2,
		ScoreMin: &lo, ScoreMax: &hi, ScoreNonZero: 1,
		Rules: []engine.RuleStat{
			{ID: "exclure_etudiants", Active: true, Type: "contains_keyword", Action: "exclude", Matched: 1, Removed: 1},
			{ID: "vide", Active: true, Type: "contains_keyword", Action: "exclude", Warning: "no usable keyword"},
		},
		TopExclusions:     []analytics.ReasonCount{{Reason: "exclure_etudiants", Removed: 1}},
		ScoreDistribution: []analytics.ScoreBucket{{Score: 0, Count: 1}, {Score: 2, Count: 1}},
		Empty:             analytics.EmptyCounts{RawTitleColumn: "Title", RawTitle: 1},
	}
	r := NewBuilder().Build("contacts.csv", time.Now(), summary)
	r.Outputs = []string{"prospects.csv"}

	var out strings.Builder
	require.NoError(t, r.WriteText(&out))
	text := out.String()

	assert.Contains(t, text, "run "+r.ID+" (contacts.csv)")
	assert.Contains(t, text, "rows: start=3 end=2 recommended=2")
	assert.Contains(t, text, "score: min=0 max=2 nonzero=1")
	assert.Contains(t, text, `raw "Title"=1`)
	assert.Contains(t, text, "  - exclure_etudiants | active=true | type=contains_keyword | action=exclude | matched=1 | removed=1 | kept=0 | score_added=0\n")
	assert.Contains(t, text, "| warning=no usable keyword")
	assert.Contains(t, text, "  - exclure_etudiants: 1\n")
	assert.Contains(t, text, "  - 2: 1\n")
	assert.Contains(t, text, "wrote prospects.csv")
}

func TestWriteTextEmptyRun(t *testing.T) {
	var out strings.Builder
	require.NoError(t, Report{ID: "x"}.WriteText(&out))
	assert.Contains(t, out.String(), "score: min=- max=- nonzero=0")
}
