package config

import (
	"fmt"
	"path/filepath"

	"github.com/cognicore/prospector/internal/logging"
	"github.com/cognicore/prospector/pkg/prospector/classify"
	"github.com/cognicore/prospector/pkg/prospector/engine"
	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/lexicon"
	"github.com/cognicore/prospector/pkg/prospector/rank"
)

// Components holds everything a run needs, built from a Config.
type Components struct {
	Mapping  ingest.Mapping
	Engine   *engine.Engine
	Taxonomy *classify.Taxonomy
	// Lexicon is nil when column detection is disabled.
	Lexicon *lexicon.Lexicon

	Policy             rank.Policy
	ProspectMin        float64
	HeuristicExclusion bool
}

// Build loads the auxiliary files and constructs the run components.
func (c *Config) Build(logger logging.Logger) (*Components, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	comp := &Components{
		Mapping:            c.Mapping(),
		Engine:             engine.New(c.Rules, engine.WithLogger(logger)),
		Taxonomy:           classify.Default(),
		Policy:             c.Policy,
		ProspectMin:        c.ProspectMin,
		HeuristicExclusion: c.Classification.HeuristicExclusion,
	}

	if c.TaxonomyPath != "" {
		tax, err := classify.LoadTaxonomy(c.resolve(c.TaxonomyPath))
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		comp.Taxonomy = tax
	}

	if c.Classification.DetectColumns {
		comp.Lexicon = lexicon.Default()
		if c.LexiconPath != "" {
			lex, err := lexicon.LoadFromYAML(c.resolve(c.LexiconPath))
			if err != nil {
				return nil, fmt.Errorf("load lexicon: %w", err)
			}
			comp.Lexicon = lex
		}
	}

	return comp, nil
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}

func dirOf(path string) string {
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}
