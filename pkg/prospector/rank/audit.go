package rank

import "github.com/cognicore/prospector/pkg/prospector/ingest"

// AuditRow is one line of the classification audit.
type AuditRow struct {
	ingest.Row
	Excluded bool
	// Reason names the rule or heuristic that excluded the row.
	Reason string
}

// Exclusion is a row removed before ranking, with the reason it was removed.
type Exclusion struct {
	Row    ingest.Row
	Reason string
}

// Audit lists every row of a run: the ranked prospects, then the kept rows
// that were not recommended, then the excluded rows. Excluded rows are
// reported with score 0 and never recommended.
func Audit(ranked, kept []ingest.Row, excluded []Exclusion) []AuditRow {
	out := make([]AuditRow, 0, len(ranked)+len(kept)+len(excluded))
	for _, row := range ranked {
		out = append(out, AuditRow{Row: row})
	}
	for _, row := range kept {
		if !row.Recommended {
			out = append(out, AuditRow{Row: row})
		}
	}
	for _, ex := range excluded {
		row := ex.Row
		row.Score = 0
		row.Recommended = false
		row.DecisionMaker = false
		out = append(out, AuditRow{Row: row, Excluded: true, Reason: ex.Reason})
	}
	return out
}

// Decision is the keep/discard verdict of the scoring entry point.
type Decision string

const (
	DecisionKeep    Decision = "keep"
	DecisionDiscard Decision = "discard"
)

// Decide keeps rows whose score reaches floor.
func Decide(row ingest.Row, floor float64) Decision {
	if float64(row.Score) >= floor {
		return DecisionKeep
	}
	return DecisionDiscard
}
