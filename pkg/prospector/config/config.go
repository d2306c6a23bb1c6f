// Package config loads the rule-set configuration file.
//
// The file is YAML (JSON is accepted as a YAML subset). Keys may be given in
// French, as in exported rule sets, or in English:
//
//	champs_csv | fields        logical field -> source column (or null)
//	regles | rules             ordered rule list
//	scoring.seuils.prospect_min
//	scoring.recommandation     {score_min, decideurs}
//	classification             {exclusion_heuristique, fallback_nom, detection_colonnes}
//	lexique | lexicon          alias file for column detection
//	taxonomie | taxonomy       pattern families for the classifiers
//	logging                    {level, format}
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/prospector/internal/logging"
	"github.com/cognicore/prospector/pkg/prospector/engine"
	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/internalerr"
	"github.com/cognicore/prospector/pkg/prospector/rank"
)

// Error reports an invalid configuration, naming the offending key.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Key, e.Reason)
}

// Unwrap lets callers test for internalerr.ErrInvalidConfig.
func (e *Error) Unwrap() error {
	return internalerr.ErrInvalidConfig
}

// DefaultProspectMin is used when scoring.seuils.prospect_min is absent.
const DefaultProspectMin = 1.0

// Classification toggles the heuristic steps.
type Classification struct {
	HeuristicExclusion bool
	TitleFallback      bool
	DetectColumns      bool
}

// Config is a validated configuration. It is not modified after loading.
type Config struct {
	// Dir is the directory of the loaded file; relative paths resolve there.
	Dir string

	Fields         map[ingest.Field]string
	Rules          []engine.Rule
	ProspectMin    float64
	Policy         rank.Policy
	Classification Classification
	LexiconPath    string
	TaxonomyPath   string
	Logging        logging.Config
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.Dir = dirOf(path)
	return cfg, nil
}

// Parse validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Key: "(document)", Reason: err.Error()}
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, &Error{Key: "(document)", Reason: fmt.Sprintf("expected a mapping, got %s", typeName(doc))}
	}
	return FromMap(root)
}

// FromMap validates an already decoded document. Every required section is
// checked before any rule is decoded.
func FromMap(doc map[string]any) (*Config, error) {
	fieldsRaw, err := section(doc, "champs_csv", "fields")
	if err != nil {
		return nil, err
	}
	rulesRaw, ok := lookup(doc, "regles", "rules")
	if !ok {
		return nil, &Error{Key: "regles", Reason: "missing required section"}
	}
	if _, isList := rulesRaw.([]any); !isList {
		return nil, &Error{Key: "regles", Reason: fmt.Sprintf("must be a list, got %s", typeName(rulesRaw))}
	}
	scoring, err := section(doc, "scoring")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Fields:      make(map[ingest.Field]string, len(ingest.LogicalFields)),
		ProspectMin: DefaultProspectMin,
		Policy:      rank.DefaultPolicy(),
		Classification: Classification{
			HeuristicExclusion: true,
			TitleFallback:      true,
		},
	}

	for key, v := range fieldsRaw {
		f, known := ingest.ParseField(key)
		if !known {
			continue
		}
		switch col := v.(type) {
		case nil:
		case string:
			cfg.Fields[f] = strings.TrimSpace(col)
		default:
			return nil, &Error{Key: "champs_csv." + key, Reason: fmt.Sprintf("must be a column name or null, got %s", typeName(v))}
		}
	}

	if err := cfg.readScoring(scoring); err != nil {
		return nil, err
	}
	if err := cfg.readClassification(doc); err != nil {
		return nil, err
	}
	if cfg.LexiconPath, err = optionalString(doc, "lexique", "lexicon"); err != nil {
		return nil, err
	}
	if cfg.TaxonomyPath, err = optionalString(doc, "taxonomie", "taxonomy"); err != nil {
		return nil, err
	}
	if v, ok := lookup(doc, "logging"); ok && v != nil {
		m, isMap := v.(map[string]any)
		if !isMap {
			return nil, &Error{Key: "logging", Reason: fmt.Sprintf("must be a mapping, got %s", typeName(v))}
		}
		if level, ok := m["level"].(string); ok {
			cfg.Logging.Level = level
		}
		if format, ok := m["format"].(string); ok {
			cfg.Logging.Format = format
		}
	}

	rules, err := engine.DecodeRules(rulesRaw)
	if err != nil {
		return nil, &Error{Key: "regles", Reason: err.Error()}
	}
	cfg.Rules = rules
	return cfg, nil
}

func (c *Config) readScoring(scoring map[string]any) error {
	if v, ok := scoring["seuils"]; ok && v != nil {
		seuils, isMap := v.(map[string]any)
		if !isMap {
			return &Error{Key: "scoring.seuils", Reason: fmt.Sprintf("must be a mapping, got %s", typeName(v))}
		}
		if pm, ok := seuils["prospect_min"]; ok && pm != nil {
			n, numeric := toFloat(pm)
			if !numeric {
				return &Error{Key: "scoring.seuils.prospect_min", Reason: fmt.Sprintf("must be a number, got %v", pm)}
			}
			c.ProspectMin = n
		}
	}

	v, ok := lookup(scoring, "recommandation", "recommendation")
	if !ok || v == nil {
		return nil
	}
	rec, isMap := v.(map[string]any)
	if !isMap {
		return &Error{Key: "scoring.recommandation", Reason: fmt.Sprintf("must be a mapping, got %s", typeName(v))}
	}
	if sm, ok := lookup(rec, "score_min"); ok && sm != nil {
		n, numeric := toFloat(sm)
		if !numeric || n != math.Trunc(n) {
			return &Error{Key: "scoring.recommandation.score_min", Reason: fmt.Sprintf("must be an integer, got %v", sm)}
		}
		c.Policy.MinScore = int(n)
	}
	if dm, ok := lookup(rec, "decideurs", "decision_makers"); ok && dm != nil {
		b, isBool := dm.(bool)
		if !isBool {
			return &Error{Key: "scoring.recommandation.decideurs", Reason: fmt.Sprintf("must be a boolean, got %v", dm)}
		}
		c.Policy.DecisionMakers = b
	}
	return nil
}

func (c *Config) readClassification(doc map[string]any) error {
	v, ok := doc["classification"]
	if !ok || v == nil {
		return nil
	}
	m, isMap := v.(map[string]any)
	if !isMap {
		return &Error{Key: "classification", Reason: fmt.Sprintf("must be a mapping, got %s", typeName(v))}
	}
	for _, opt := range []struct {
		keys []string
		dst  *bool
	}{
		{[]string{"exclusion_heuristique", "heuristic_exclusion"}, &c.Classification.HeuristicExclusion},
		{[]string{"fallback_nom", "title_fallback"}, &c.Classification.TitleFallback},
		{[]string{"detection_colonnes", "detect_columns"}, &c.Classification.DetectColumns},
	} {
		raw, ok := lookup(m, opt.keys...)
		if !ok || raw == nil {
			continue
		}
		b, isBool := raw.(bool)
		if !isBool {
			return &Error{Key: "classification." + opt.keys[0], Reason: fmt.Sprintf("must be a boolean, got %v", raw)}
		}
		*opt.dst = b
	}
	return nil
}

// Mapping returns the field mapping described by the configuration.
func (c *Config) Mapping() ingest.Mapping {
	cols := make(map[ingest.Field]string, len(c.Fields))
	for f, col := range c.Fields {
		cols[f] = col
	}
	return ingest.Mapping{Columns: cols, TitleFallback: c.Classification.TitleFallback}
}

func section(doc map[string]any, keys ...string) (map[string]any, error) {
	v, ok := lookup(doc, keys...)
	if !ok {
		return nil, &Error{Key: keys[0], Reason: "missing required section"}
	}
	m, isMap := v.(map[string]any)
	if !isMap {
		return nil, &Error{Key: keys[0], Reason: fmt.Sprintf("must be a mapping, got %s", typeName(v))}
	}
	return m, nil
}

func optionalString(doc map[string]any, keys ...string) (string, error) {
	v, ok := lookup(doc, keys...)
	if !ok || v == nil {
		return "", nil
	}
	s, isString := v.(string)
	if !isString {
		return "", &Error{Key: keys[0], Reason: fmt.Sprintf("must be a path, got %s", typeName(v))}
	}
	return strings.TrimSpace(s), nil
}

func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
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
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "mapping"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
