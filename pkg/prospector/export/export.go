// Package export writes scoring results as CSV files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/rank"
)

// ProspectColumns is the fixed schema of every prospect export.
var ProspectColumns = []string{"name", "title", "sector", "segment", "recommended", "score", "url"}

// Extra columns of the audit and decision tables.
const (
	ColumnExcluded = "excluded"
	ColumnReason   = "reason"
	ColumnDecision = "decision"
)

// Segment file names.
const (
	BusinessFile = "prospects_business.csv"
	TechFile     = "prospects_tech.csv"
)

func prospectRecord(row ingest.Row) ingest.Record {
	return ingest.Record{
		"name":        row.Name,
		"title":       row.Title,
		"sector":      row.Sector,
		"segment":     string(row.Segment),
		"recommended": strconv.FormatBool(row.Recommended),
		"score":       strconv.Itoa(row.Score),
		"url":         row.URL,
	}
}

// ProspectTable projects rows onto ProspectColumns.
func ProspectTable(rows []ingest.Row) ingest.RawTable {
	t := ingest.RawTable{Columns: append([]string(nil), ProspectColumns...), Records: make([]ingest.Record, 0, len(rows))}
	for _, row := range rows {
		t.Records = append(t.Records, prospectRecord(row))
	}
	return t
}

// AuditTable adds the excluded flag and exclusion reason to ProspectColumns.
func AuditTable(rows []rank.AuditRow) ingest.RawTable {
	cols := append(append([]string(nil), ProspectColumns...), ColumnExcluded, ColumnReason)
	t := ingest.RawTable{Columns: cols, Records: make([]ingest.Record, 0, len(rows))}
	for _, row := range rows {
		rec := prospectRecord(row.Row)
		rec[ColumnExcluded] = strconv.FormatBool(row.Excluded)
		rec[ColumnReason] = row.Reason
		t.Records = append(t.Records, rec)
	}
	return t
}

// DecisionTable adds a keep/discard column computed against prospectMin.
func DecisionTable(rows []ingest.Row, prospectMin float64) ingest.RawTable {
	cols := append(append([]string(nil), ProspectColumns...), ColumnDecision)
	t := ingest.RawTable{Columns: cols, Records: make([]ingest.Record, 0, len(rows))}
	for _, row := range rows {
		rec := prospectRecord(row)
		rec[ColumnDecision] = string(rank.Decide(row, prospectMin))
		t.Records = append(t.Records, rec)
	}
	return t
}

// WriteFile writes table to path, creating parent directories.
func WriteFile(path string, table ingest.RawTable) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := ingest.WriteCSV(f, table); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// WriteSegments writes the business and tech subsets of ranked prospects
// into dir and returns the written paths. Both files are always written.
func WriteSegments(dir string, ranked []ingest.Row) ([]string, error) {
	split := rank.BySegment(ranked)
	var written []string
	for _, seg := range []struct {
		segment ingest.Segment
		file    string
	}{
		{ingest.SegmentBusiness, BusinessFile},
		{ingest.SegmentTech, TechFile},
	} {
		path := filepath.Join(dir, seg.file)
		if err := WriteFile(path, ProspectTable(split[seg.segment])); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
