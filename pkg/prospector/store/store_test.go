package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/internalerr"
)

func TestUnique(t *testing.T) {
	out := Unique([]Prospect{{URL: "a", Name: "1"}, {URL: ""}, {URL: "b"}, {URL: "a", Name: "2"}})
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].Name)
	assert.Equal(t, "b", out[1].URL)
}

func TestFromRow(t *testing.T) {
	p := FromRow(ingest.Row{
		Name: "Alice", Title: "CEO", URL: " u1 ", Sector: "commerce",
		Segment: ingest.SegmentBusiness, Score: 2, Recommended: true, DecisionMaker: true,
		Raw: map[string]string{"Email Address": "a@example.com", "Téléphone": "0102"},
	})

	assert.Equal(t, "u1", p.URL)
	assert.Equal(t, "business", p.Segment)
	assert.Equal(t, "a@example.com", p.Email)
	assert.Equal(t, "0102", p.Phone)
	assert.True(t, p.Recommended)
	assert.True(t, p.DecisionMaker)
}

func TestIsRecommended(t *testing.T) {
	for _, v := range []string{"true", "True", " 1 ", "yes", "OUI"} {
		assert.True(t, IsRecommended(v), v)
	}
	for _, v := range []string{"", "false", "0", "non"} {
		assert.False(t, IsRecommended(v), v)
	}
}

func TestSelectForSync(t *testing.T) {
	table := ingest.RawTable{
		Columns: []string{"Name", "Title", "Sector", "Recommended", "Score", "URL", "Email"},
		Records: []ingest.Record{
			{"Name": "A", "Recommended": "True", "Score": "2", "URL": " u1 ", "Email": "a@x.fr"},
			{"Name": "B", "Recommended": "False", "URL": "u2"},
			{"Name": "C", "Recommended": "oui", "URL": ""},
			{"Name": "D", "Recommended": "1", "URL": "u1"},
			{"Name": "E", "Recommended": "yes", "URL": "u3"},
		},
	}
	got, err := SelectForSync(table)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, Prospect{URL: "u1", Name: "A", Score: 2, Email: "a@x.fr", Recommended: true}, got[0])
	assert.Equal(t, "u3", got[1].URL)
}

func TestSelectForSyncWithoutRecommendedColumn(t *testing.T) {
	got, err := SelectForSync(ingest.RawTable{
		Columns: []string{"url"},
		Records: []ingest.Record{{"url": "u1"}, {"url": "u2"}},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.True(t, got[0].Recommended)
}

func TestSelectForSyncNeedsURL(t *testing.T) {
	_, err := SelectForSync(ingest.RawTable{Columns: []string{"name"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrMissingColumn))
}
