// Package analytics builds the diagnostic summary of a scoring run.
package analytics

import (
	"sort"
	"strings"

	"github.com/cognicore/prospector/pkg/prospector/engine"
	"github.com/cognicore/prospector/pkg/prospector/ingest"
)

// MaxTopExclusions caps the exclusion reasons reported in a summary.
const MaxTopExclusions = 10

// ReasonCount is the number of rows removed for one reason.
type ReasonCount struct {
	Reason  string `json:"reason"`
	Removed int    `json:"removed"`
}

// ScoreBucket counts rows sharing a score.
type ScoreBucket struct {
	Score int `json:"score"`
	Count int `json:"count"`
}

// Analyzer accumulates exclusion reasons and final scores.
type Analyzer struct {
	removed map[string]int
	order   []string
	scores  map[int]int
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		removed: make(map[string]int),
		scores:  make(map[int]int),
	}
}

// Exclude records n rows removed for reason.
func (a *Analyzer) Exclude(reason string, n int) {
	if n <= 0 {
		return
	}
	if _, ok := a.removed[reason]; !ok {
		a.order = append(a.order, reason)
	}
	a.removed[reason] += n
}

// AddRuleStats records the removals of every rule of a run.
func (a *Analyzer) AddRuleStats(stats engine.RunStats) {
	for _, r := range stats.Rules {
		a.Exclude(r.ID, r.Removed)
	}
}

// Observe adds the scores of rows to the distribution.
func (a *Analyzer) Observe(rows []ingest.Row) {
	for _, row := range rows {
		a.scores[row.Score]++
	}
}

// TopExclusions returns at most limit reasons by removed count, highest
// first. Ties keep the order in which reasons were first recorded.
func (a *Analyzer) TopExclusions(limit int) []ReasonCount {
	out := make([]ReasonCount, 0, len(a.order))
	for _, reason := range a.order {
		out = append(out, ReasonCount{Reason: reason, Removed: a.removed[reason]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Removed > out[j].Removed })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ScoreDistribution returns the observed scores in ascending order.
func (a *Analyzer) ScoreDistribution() []ScoreBucket {
	out := make([]ScoreBucket, 0, len(a.scores))
	for score, n := range a.scores {
		out = append(out, ScoreBucket{Score: score, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

// EmptyCounts reports blank values in the input.
type EmptyCounts struct {
	// Raw columns mapped to title and name; empty names mean unmapped.
	RawTitleColumn string `json:"raw_title_column,omitempty"`
	RawTitle       int    `json:"raw_title"`
	RawNameColumn  string `json:"raw_name_column,omitempty"`
	RawName        int    `json:"raw_name"`
	// Title counts rows whose mapped title normalizes to "".
	Title int `json:"title"`
}

// CountEmpty counts records whose column is absent or blank. It reports
// false when the table has no such column.
func CountEmpty(raw ingest.RawTable, column string) (int, bool) {
	found := false
	for _, c := range raw.Columns {
		if c == column {
			found = true
			break
		}
	}
	if !found {
		return 0, false
	}
	n := 0
	for _, rec := range raw.Records {
		if strings.TrimSpace(rec[column]) == "" {
			n++
		}
	}
	return n, true
}

// CountEmptyTitles counts rows with no usable title.
func CountEmptyTitles(rows []ingest.Row) int {
	n := 0
	for _, row := range rows {
		if ingest.Normalize(row.Title) == "" {
			n++
		}
	}
	return n
}

// Summary is the diagnostic view of one run.
type Summary struct {
	TotalStart        int               `json:"total_start"`
	TotalEnd          int               `json:"total_end"`
	Recommended       int               `json:"recommended"`
	ScoreMin          *int              `json:"score_min"`
	ScoreMax          *int              `json:"score_max"`
	ScoreNonZero      int               `json:"score_nonzero"`
	Rules             []engine.RuleStat `json:"rules"`
	ScoreDistribution []ScoreBucket     `json:"score_distribution"`
	TopExclusions     []ReasonCount     `json:"top_exclusions"`
	Empty             EmptyCounts       `json:"empty"`
}

// Summarize combines engine stats with the analyzer state.
func (a *Analyzer) Summarize(stats engine.RunStats, recommended int, empty EmptyCounts) Summary {
	return Summary{
		TotalStart:        stats.TotalStart,
		TotalEnd:          stats.TotalEnd,
		Recommended:       recommended,
		ScoreMin:          stats.ScoreMin,
		ScoreMax:          stats.ScoreMax,
		ScoreNonZero:      stats.ScoreNonZero,
		Rules:             stats.Rules,
		ScoreDistribution: a.ScoreDistribution(),
		TopExclusions:     a.TopExclusions(MaxTopExclusions),
		Empty:             empty,
	}
}
