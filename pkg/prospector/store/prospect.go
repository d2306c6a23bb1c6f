package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/internalerr"
)

// FromRow converts a ranked row. Email and phone are read from raw columns
// whose name mentions them.
func FromRow(row ingest.Row) Prospect {
	return Prospect{
		URL:           strings.TrimSpace(row.URL),
		Name:          row.Name,
		Title:         row.Title,
		Company:       row.Company,
		Sector:        row.Sector,
		Segment:       string(row.Segment),
		Location:      row.Location,
		Email:         rawContaining(row.Raw, "mail"),
		Phone:         firstNonEmpty(rawContaining(row.Raw, "phone"), rawContaining(row.Raw, "telephone")),
		Score:         row.Score,
		DecisionMaker: row.DecisionMaker,
		Recommended:   row.Recommended,
		Source:        row.Source,
	}
}

// FromRows converts ranked rows.
func FromRows(rows []ingest.Row) []Prospect {
	out := make([]Prospect, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromRow(row))
	}
	return out
}

func rawContaining(raw map[string]string, needle string) string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(ingest.Normalize(k), needle) {
			if v := strings.TrimSpace(raw[k]); v != "" {
				return v
			}
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsRecommended parses a recommended cell: true, 1, yes and oui are accepted.
func IsRecommended(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "oui":
		return true
	}
	return false
}

// SelectForSync reads a prospect export: column names are matched
// case-insensitively, rows are filtered on the recommended column when the
// export has one, then empty and repeated URLs are dropped.
func SelectForSync(table ingest.RawTable) ([]Prospect, error) {
	cols := make(map[string]string, len(table.Columns))
	for _, c := range table.Columns {
		key := strings.ToLower(strings.TrimSpace(c))
		if _, dup := cols[key]; !dup {
			cols[key] = c
		}
	}
	if _, ok := cols["url"]; !ok {
		return nil, fmt.Errorf("prospect export has no url column: %w", internalerr.ErrMissingColumn)
	}
	get := func(rec ingest.Record, name string) string {
		if col, ok := cols[name]; ok {
			return strings.TrimSpace(rec[col])
		}
		return ""
	}
	_, filter := cols["recommended"]

	out := make([]Prospect, 0, len(table.Records))
	for _, rec := range table.Records {
		if filter && !IsRecommended(get(rec, "recommended")) {
			continue
		}
		score, _ := strconv.Atoi(get(rec, "score"))
		out = append(out, Prospect{
			URL:           get(rec, "url"),
			Name:          get(rec, "name"),
			Title:         get(rec, "title"),
			Company:       get(rec, "company"),
			Sector:        get(rec, "sector"),
			Segment:       get(rec, "segment"),
			Location:      firstNonEmpty(get(rec, "location"), get(rec, "city")),
			Email:         get(rec, "email"),
			Phone:         get(rec, "phone"),
			Score:         score,
			DecisionMaker: IsRecommended(get(rec, "decision_maker")),
			Recommended:   !filter || IsRecommended(get(rec, "recommended")),
			Source:        get(rec, "source"),
		})
	}
	return Unique(out), nil
}
