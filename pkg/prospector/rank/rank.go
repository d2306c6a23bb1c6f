// Package rank derives the recommended flag, deduplicates prospects by URL
// and puts them in a deterministic order.
package rank

import (
	"sort"
	"strings"

	"github.com/cognicore/prospector/pkg/prospector/ingest"
)

// Policy decides which rows are recommended.
type Policy struct {
	// MinScore recommends rows whose score reaches it.
	MinScore int
	// DecisionMakers recommends every decision maker regardless of score.
	DecisionMakers bool
}

// DefaultPolicy recommends decision makers and rows scoring at least 1.
func DefaultPolicy() Policy {
	return Policy{MinScore: 1, DecisionMakers: true}
}

// Recommend reports whether row is recommended under the policy.
func (p Policy) Recommend(row ingest.Row) bool {
	if p.DecisionMakers && row.DecisionMaker {
		return true
	}
	return row.Score >= p.MinScore
}

// Mark sets Recommended on every row.
func (p Policy) Mark(rows []ingest.Row) {
	for i := range rows {
		rows[i].Recommended = p.Recommend(rows[i])
	}
}

// Dedup keeps the first row for each URL. Rows with an empty URL are never
// merged with each other.
func Dedup(rows []ingest.Row) []ingest.Row {
	seen := make(map[string]bool, len(rows))
	out := make([]ingest.Row, 0, len(rows))
	for _, row := range rows {
		key := strings.TrimSpace(row.URL)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, row)
	}
	return out
}

// Less orders rows by recommended (true first), score (high first), then
// segment, sector and title ascending.
func Less(a, b ingest.Row) bool {
	if a.Recommended != b.Recommended {
		return a.Recommended
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Segment != b.Segment {
		return a.Segment < b.Segment
	}
	if a.Sector != b.Sector {
		return a.Sector < b.Sector
	}
	return a.Title < b.Title
}

// Sort orders rows in place with Less. Equal rows keep their input order.
func Sort(rows []ingest.Row) {
	sort.SliceStable(rows, func(i, j int) bool { return Less(rows[i], rows[j]) })
}

// Rank returns the final prospect list: recommended rows with a URL,
// deduplicated on URL (first seen wins) and sorted. The input is not
// modified.
func Rank(rows []ingest.Row) []ingest.Row {
	selected := make([]ingest.Row, 0, len(rows))
	for _, row := range rows {
		if row.Recommended && strings.TrimSpace(row.URL) != "" {
			selected = append(selected, row)
		}
	}
	selected = Dedup(selected)
	Sort(selected)
	return selected
}

// BySegment splits ranked rows per segment, preserving order.
func BySegment(rows []ingest.Row) map[ingest.Segment][]ingest.Row {
	out := make(map[ingest.Segment][]ingest.Row)
	for _, row := range rows {
		out[row.Segment] = append(out[row.Segment], row)
	}
	return out
}
