package engine

import (
	"fmt"
	"strings"

	"github.com/cognicore/prospector/pkg/prospector/ingest"
)

// RuleStatus tells what happened to a rule during a run.
type RuleStatus string

const (
	StatusApplied RuleStatus = "applied"
	StatusSkipped RuleStatus = "skipped"
	StatusWarning RuleStatus = "warning"
)

// RuleStat counts the effect of one rule.
type RuleStat struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Action     string     `json:"action"`
	Active     bool       `json:"active"`
	Matched    int        `json:"matched"`
	Removed    int        `json:"removed"`
	Kept       int        `json:"kept"`
	ScoreAdded int        `json:"score_added"`
	Status     RuleStatus `json:"status"`
	Warning    string     `json:"warning,omitempty"`
}

func (s *RuleStat) warn(reason string) {
	s.Status = StatusWarning
	s.Warning = reason
}

// String renders the stat as one trace line.
func (s RuleStat) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | active=%t | type=%s | action=%s | matched=%d | removed=%d | kept=%d | score_added=%d",
		s.ID, s.Active, s.Type, s.Action, s.Matched, s.Removed, s.Kept, s.ScoreAdded)
	if s.Warning != "" {
		fmt.Fprintf(&b, " | warning=%s", s.Warning)
	}
	return b.String()
}

// RunStats summarizes a run. Score bounds are nil when no row remains.
type RunStats struct {
	TotalStart   int        `json:"total_start"`
	TotalEnd     int        `json:"total_end"`
	ScoreMin     *int       `json:"score_min"`
	ScoreMax     *int       `json:"score_max"`
	ScoreNonZero int        `json:"score_nonzero"`
	Rules        []RuleStat `json:"rules"`
}

// Warnings returns the stats of rules skipped with a warning.
func (s RunStats) Warnings() []RuleStat {
	var out []RuleStat
	for _, r := range s.Rules {
		if r.Status == StatusWarning {
			out = append(out, r)
		}
	}
	return out
}

func (s *RunStats) finish(rows []ingest.Row) {
	s.TotalEnd = len(rows)
	s.ScoreMin, s.ScoreMax, s.ScoreNonZero = nil, nil, 0
	for _, row := range rows {
		score := row.Score
		if s.ScoreMin == nil || score < *s.ScoreMin {
			v := score
			s.ScoreMin = &v
		}
		if s.ScoreMax == nil || score > *s.ScoreMax {
			v := score
			s.ScoreMax = &v
		}
		if score != 0 {
			s.ScoreNonZero++
		}
	}
}
