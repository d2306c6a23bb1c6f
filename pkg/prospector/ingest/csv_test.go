package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVComma(t *testing.T) {
	in := "\ufeffName,Title,URL\nAlice,CEO,https://linkedin.com/in/alice\nBob,,\n"
	table, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Title", "URL"}, table.Columns)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "Alice", table.Records[0]["Name"])
	assert.Equal(t, "", table.Records[1]["Title"])
}

func TestReadCSVSemicolonFallback(t *testing.T) {
	in := "nom;poste;url\nDupont, Jean;Gérant;https://linkedin.com/in/jd\n"
	table, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"nom", "poste", "url"}, table.Columns)
	require.Len(t, table.Records, 1)
	assert.Equal(t, "Dupont, Jean", table.Records[0]["nom"])
	assert.Equal(t, "Gérant", table.Records[0]["poste"])
}

func TestReadCSVShortRecords(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("a,b,c\n1,2\n"))
	require.NoError(t, err)
	require.Len(t, table.Records, 1)

	_, ok := table.Records[0]["c"]
	assert.False(t, ok)
	assert.Equal(t, "2", table.Records[0]["b"])
}

func TestReadCSVEmpty(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, table.Columns)
	assert.Empty(t, table.Records)
}

func TestReadCSVFileMissing(t *testing.T) {
	_, err := ReadCSVFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open csv")
}

func TestWriteCSVRoundTrip(t *testing.T) {
	table := RawTable{
		Columns: []string{"name", "title"},
		Records: []Record{{"name": "Élise", "title": "Gérante"}, {"name": "Bob"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	back, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, table.Columns, back.Columns)
	assert.Equal(t, "Élise", back.Records[0]["name"])
	assert.Equal(t, "", back.Records[1]["title"])
}
