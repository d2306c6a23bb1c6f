// Package engine applies an ordered list of declarative rules to a mapped
// contact table: keyword exclusion, keyword scoring and score thresholds.
package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cognicore/prospector/internal/logging"
	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/keyword"
)

// Removal records a row dropped by a rule.
type Removal struct {
	Row    ingest.Row
	RuleID string
}

// Result is the outcome of Engine.Apply.
type Result struct {
	Rows    []ingest.Row
	Removed []Removal
	Stats   RunStats
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithInitialScoreColumn names the raw column used to seed row scores when
// the table has it. Defaults to "score".
func WithInitialScoreColumn(column string) Option {
	return func(e *Engine) { e.scoreColumn = column }
}

// Engine applies rules sequentially in configured order. It holds no
// per-run state and can be reused.
type Engine struct {
	rules       []Rule
	matchers    []*keyword.Matcher
	scoreColumn string
	logger      logging.Logger
}

// New compiles the keyword rules once.
func New(rules []Rule, opts ...Option) *Engine {
	e := &Engine{
		rules:       append([]Rule(nil), rules...),
		matchers:    make([]*keyword.Matcher, len(rules)),
		scoreColumn: DefaultScoreField,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	for i, r := range e.rules {
		if r.Type == TypeContainsKeyword {
			e.matchers[i] = keyword.Compile(r.Keywords)
		}
	}
	return e
}

// Rules returns the configured rules.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Apply runs every rule against a copy of the table rows. The input table is
// not modified. Exactly one RuleStat is produced per configured rule.
func (e *Engine) Apply(table ingest.Table) Result {
	rows := make([]ingest.Row, len(table.Rows))
	seed := e.scoreColumn != "" && hasRawColumn(table.Columns, e.scoreColumn)
	for i, r := range table.Rows {
		rows[i] = r.Clone()
		if seed {
			rows[i].Score = parseScore(r.Raw[e.scoreColumn])
		}
	}

	res := Result{Stats: RunStats{TotalStart: len(rows), Rules: make([]RuleStat, 0, len(e.rules))}}

	for i, rule := range e.rules {
		stat := RuleStat{
			ID:     rule.ID,
			Type:   string(rule.Type),
			Action: string(rule.Action),
			Active: rule.Active,
		}

		switch {
		case rule.Problem != "":
			stat.warn(rule.Problem)
		case !rule.Active:
			stat.Status = StatusSkipped
		case rule.Type == TypeContainsKeyword:
			rows = e.applyKeyword(rule, e.matchers[i], &table, rows, &stat, &res.Removed)
		case rule.Type == TypeThreshold:
			rows = e.applyThreshold(rule, &table, rows, &stat, &res.Removed)
		default:
			stat.warn(fmt.Sprintf("unknown rule type %q", rule.Type))
		}

		switch stat.Status {
		case StatusWarning:
			e.logger.Warn("rule skipped",
				logging.String("rule_id", rule.ID),
				logging.String("reason", stat.Warning))
		case StatusApplied:
			e.logger.Debug("rule applied",
				logging.String("rule_id", rule.ID),
				logging.Int("matched", stat.Matched),
				logging.Int("removed", stat.Removed),
				logging.Int("kept", stat.Kept),
				logging.Int("score_added", stat.ScoreAdded),
				logging.Int("rows", len(rows)))
		}
		res.Stats.Rules = append(res.Stats.Rules, stat)
	}

	res.Rows = rows
	res.Stats.finish(rows)
	return res
}

func (e *Engine) applyKeyword(rule Rule, m *keyword.Matcher, table *ingest.Table, rows []ingest.Row, stat *RuleStat, removed *[]Removal) []ingest.Row {
	if rule.Field == "" || !table.HasColumn(rule.Field) {
		stat.warn(fmt.Sprintf("field %q not found", rule.Field))
		return rows
	}
	if m == nil {
		stat.warn("no usable keyword")
		return rows
	}
	if rule.Action != ActionExclude && rule.Action != ActionScore {
		stat.warn(fmt.Sprintf("unknown action %q for %s", rule.Action, rule.Type))
		return rows
	}

	stat.Status = StatusApplied
	kept := make([]ingest.Row, 0, len(rows))
	for _, row := range rows {
		value, _ := row.Lookup(rule.Field)
		if !m.Matches(ingest.Normalize(value)) {
			kept = append(kept, row)
			continue
		}
		stat.Matched++
		switch rule.Action {
		case ActionExclude:
			stat.Removed++
			*removed = append(*removed, Removal{Row: row, RuleID: rule.ID})
		case ActionScore:
			row.Score += rule.Points
			stat.ScoreAdded += rule.Points
			kept = append(kept, row)
		}
	}
	return kept
}

func (e *Engine) applyThreshold(rule Rule, table *ingest.Table, rows []ingest.Row, stat *RuleStat, removed *[]Removal) []ingest.Row {
	if rule.Min == nil {
		stat.warn("missing min")
		return rows
	}
	if !table.HasColumn(rule.ScoreField) {
		stat.warn(fmt.Sprintf("score field %q not found", rule.ScoreField))
		return rows
	}
	if rule.Action != ActionKeep {
		stat.warn(fmt.Sprintf("unknown action %q for %s", rule.Action, rule.Type))
		return rows
	}

	stat.Status = StatusApplied
	floor := *rule.Min
	kept := make([]ingest.Row, 0, len(rows))
	for _, row := range rows {
		if scoreOf(row, rule.ScoreField) >= floor {
			stat.Kept++
			kept = append(kept, row)
			continue
		}
		stat.Removed++
		*removed = append(*removed, Removal{Row: row, RuleID: rule.ID})
	}
	return kept
}

func scoreOf(row ingest.Row, field string) float64 {
	if field == DefaultScoreField {
		return float64(row.Score)
	}
	v, _ := row.Lookup(field)
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

func parseScore(v string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func hasRawColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
