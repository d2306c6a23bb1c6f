package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cognicore/prospector/pkg/prospector/internalerr"
)

// RuleType identifies how a rule selects rows.
type RuleType string

const (
	TypeContainsKeyword RuleType = "contains_keyword"
	TypeThreshold       RuleType = "threshold"
)

// Action is what a rule does to the rows it selects.
type Action string

const (
	ActionExclude Action = "exclude"
	ActionScore   Action = "score"
	ActionKeep    Action = "keep"
)

// DefaultScoreField is the score column read by threshold rules.
const DefaultScoreField = "score"

var typeAliases = map[string]RuleType{
	"contains_keyword":    TypeContainsKeyword,
	"contient_un_mot_cle": TypeContainsKeyword,
	"threshold":           TypeThreshold,
	"seuil":               TypeThreshold,
}

var actionAliases = map[string]Action{
	"exclude": ActionExclude,
	"exclure": ActionExclude,
	"score":   ActionScore,
	"keep":    ActionKeep,
	"garder":  ActionKeep,
}

// Rule is one declarative rule. Unknown types and actions keep their
// configured spelling so they can be reported.
type Rule struct {
	ID     string
	Active bool
	Type   RuleType
	Action Action

	// contains_keyword
	Field    string
	Keywords []string
	Points   int

	// threshold
	ScoreField string
	Min        *float64

	// Problem describes a structural defect found while decoding. A rule
	// with a problem is reported with a warning and never applied.
	Problem string
}

// DecodeRules converts a loosely typed rule list, as produced by a YAML or
// JSON decoder, into rules. Malformed entries are kept with a Problem; only
// a value that is not a list is rejected.
func DecodeRules(v any) ([]Rule, error) {
	entries, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("rules must be a list, got %T: %w", v, internalerr.ErrInvalidConfig)
	}

	rules := make([]Rule, 0, len(entries))
	for i, entry := range entries {
		rules = append(rules, decodeRule(i, entry))
	}
	return rules, nil
}

func decodeRule(index int, entry any) Rule {
	fallbackID := fmt.Sprintf("rule_%d", index+1)

	m, ok := entry.(map[string]any)
	if !ok {
		return Rule{ID: fallbackID, Problem: fmt.Sprintf("rule entry is %T, not a mapping", entry)}
	}

	r := Rule{ID: fallbackID, ScoreField: DefaultScoreField}
	if id, ok := lookup(m, "id"); ok && id != nil {
		if s := strings.TrimSpace(fmt.Sprint(id)); s != "" {
			r.ID = s
		}
	}
	if v, ok := lookup(m, "actif", "active"); ok {
		r.Active = truthy(v)
	}

	if v, ok := lookup(m, "type"); ok && v != nil {
		raw := strings.TrimSpace(fmt.Sprint(v))
		if t, known := typeAliases[strings.ToLower(raw)]; known {
			r.Type = t
		} else {
			r.Type = RuleType(raw)
		}
	}
	if v, ok := lookup(m, "action"); ok && v != nil {
		raw := strings.TrimSpace(fmt.Sprint(v))
		if a, known := actionAliases[strings.ToLower(raw)]; known {
			r.Action = a
		} else {
			r.Action = Action(raw)
		}
	}

	if v, ok := lookup(m, "champ", "field"); ok && v != nil {
		r.Field = strings.TrimSpace(fmt.Sprint(v))
	}
	if v, ok := lookup(m, "mots_cles", "keywords"); ok {
		// A non-list keyword value counts as no keyword at all.
		if list, isList := v.([]any); isList {
			for _, kw := range list {
				if kw != nil {
					r.Keywords = append(r.Keywords, fmt.Sprint(kw))
				}
			}
		}
	}
	if v, ok := lookup(m, "points"); ok && v != nil {
		n, numeric := toFloat(v)
		if !numeric {
			r.Problem = fmt.Sprintf("points %v is not a number", v)
		}
		r.Points = int(n)
	}

	if v, ok := lookup(m, "champ_score", "score_field"); ok && v != nil {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			r.ScoreField = s
		}
	}
	if v, ok := lookup(m, "min"); ok && v != nil {
		n, numeric := toFloat(v)
		if numeric {
			r.Min = &n
		} else {
			r.Problem = fmt.Sprintf("min %v is not a number", v)
		}
	}

	return r
}

func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "oui", "on":
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float64:
		return val, !math.IsNaN(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
