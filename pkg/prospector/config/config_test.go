package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/prospector/pkg/prospector/engine"
	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/internalerr"
)

const frenchConfig = `{
  "champs_csv": {"nom": "Name", "poste": "Title", "url": "URL", "entreprise": null, "secteur": null, "localisation": null},
  "filtres": {},
  "regles": [
    {"id": "exclure_etudiants", "actif": true, "type": "contient_un_mot_cle", "champ": "poste", "mots_cles": ["étudiant"], "action": "exclure"},
    {"id": "score_ceo", "actif": true, "type": "contient_un_mot_cle", "champ": "poste", "mots_cles": ["ceo"], "action": "score", "points": 2},
    {"id": "seuil", "actif": false, "type": "seuil", "champ_score": "score", "min": 1, "action": "garder"}
  ],
  "scoring": {"seuils": {"prospect_min": 2}}
}`

func TestParseFrenchJSON(t *testing.T) {
	cfg, err := Parse([]byte(frenchConfig))
	require.NoError(t, err)

	assert.Equal(t, map[ingest.Field]string{
		ingest.FieldName: "Name", ingest.FieldTitle: "Title", ingest.FieldURL: "URL",
	}, cfg.Fields)
	require.Len(t, cfg.Rules, 3)
	assert.Equal(t, engine.TypeContainsKeyword, cfg.Rules[0].Type)
	assert.Equal(t, engine.ActionExclude, cfg.Rules[0].Action)
	assert.Equal(t, 2, cfg.Rules[1].Points)
	assert.False(t, cfg.Rules[2].Active)
	assert.Equal(t, 2.0, cfg.ProspectMin)

	assert.Equal(t, 1, cfg.Policy.MinScore)
	assert.True(t, cfg.Policy.DecisionMakers)
	assert.True(t, cfg.Classification.HeuristicExclusion)
	assert.True(t, cfg.Classification.TitleFallback)
	assert.False(t, cfg.Classification.DetectColumns)
}

func TestParseEnglishYAML(t *testing.T) {
	cfg, err := Parse([]byte(`
fields:
  name: Full Name
  title: ~
rules:
  - id: keep
    active: true
    type: threshold
    min: 3
    action: keep
scoring:
  recommendation:
    score_min: 2
    decision_makers: false
classification:
  heuristic_exclusion: false
  title_fallback: false
  detect_columns: true
logging:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, map[ingest.Field]string{ingest.FieldName: "Full Name"}, cfg.Fields)
	assert.Equal(t, DefaultProspectMin, cfg.ProspectMin)
	assert.Equal(t, 2, cfg.Policy.MinScore)
	assert.False(t, cfg.Policy.DecisionMakers)
	assert.Equal(t, Classification{DetectColumns: true}, cfg.Classification)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Mapping().TitleFallback)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		key  string
	}{
		{"not a mapping", `[1, 2]`, "(document)"},
		{"empty", ``, "(document)"},
		{"missing fields", `{"regles": [], "scoring": {}}`, "champs_csv"},
		{"missing rules", `{"champs_csv": {}, "scoring": {}}`, "regles"},
		{"rules not a list", `{"champs_csv": {}, "regles": {"id": "x"}, "scoring": {}}`, "regles"},
		{"missing scoring", `{"champs_csv": {}, "regles": []}`, "scoring"},
		{"fields not mapping", `{"champs_csv": "Name", "regles": [], "scoring": {}}`, "champs_csv"},
		{"column not a string", `{"champs_csv": {"nom": 3}, "regles": [], "scoring": {}}`, "champs_csv.nom"},
		{"prospect_min not numeric", `{"champs_csv": {}, "regles": [], "scoring": {"seuils": {"prospect_min": "haut"}}}`, "scoring.seuils.prospect_min"},
		{"score_min not integer", `{"champs_csv": {}, "regles": [], "scoring": {"recommandation": {"score_min": 1.5}}}`, "scoring.recommandation.score_min"},
		{"flag not boolean", `{"champs_csv": {}, "regles": [], "scoring": {}, "classification": {"fallback_nom": "oui"}}`, "classification.fallback_nom"},
		{"taxonomy not a path", `{"champs_csv": {}, "regles": [], "scoring": {}, "taxonomie": [1]}`, "taxonomie"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), err.Error())
			assert.Equal(t, tt.key, cfgErr.Key)
			assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
		})
	}
}

func TestMalformedRulesAreNotFatal(t *testing.T) {
	cfg, err := Parse([]byte(`{"champs_csv": {}, "regles": ["oops", {"id": "x", "min": "n/a"}], "scoring": {}}`))
	require.NoError(t, err)
	require.Len(t, cfg.Rules, 2)
	assert.NotEmpty(t, cfg.Rules[0].Problem)
	assert.NotEmpty(t, cfg.Rules[1].Problem)
}

func TestLoadAndBuild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lexique.yaml"), []byte("fields:\n  - field: title\n    aliases: [fonction]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taxonomie.yaml"), []byte("sectors:\n  - name: sante\n    patterns: ['\\bpharmacie\\b']\n"), 0o644))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
champs_csv: {nom: Name}
regles: []
scoring: {}
classification: {detection_colonnes: true}
lexique: lexique.yaml
taxonomie: taxonomie.yaml
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir)

	comp, err := cfg.Build(nil)
	require.NoError(t, err)
	require.NotNil(t, comp.Lexicon)
	assert.Equal(t, []string{"title"}, comp.Lexicon.Fields())

	sector, ok := comp.Taxonomy.DetectSector("Pharmacie")
	assert.True(t, ok)
	assert.Equal(t, "sante", sector)
	assert.NotNil(t, comp.Engine)
	assert.True(t, comp.HeuristicExclusion)
}

func TestBuildMissingTaxonomy(t *testing.T) {
	cfg := &Config{TaxonomyPath: "nope.yaml", Dir: t.TempDir()}
	_, err := cfg.Build(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load taxonomy")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "..", "configs", "default.yaml"))
	require.NoError(t, err)
	assert.Len(t, cfg.Rules, 6)
	assert.Equal(t, 2.0, cfg.ProspectMin)
	assert.Equal(t, "Position", cfg.Fields[ingest.FieldTitle])
	assert.Empty(t, cfg.Fields[ingest.FieldSector])
	assert.Equal(t, "info", cfg.Logging.Level)

	comp, err := cfg.Build(nil)
	require.NoError(t, err)
	require.NotNil(t, comp.Lexicon)
	col, ok := comp.Lexicon.Find("name", []string{"First Name", "Full Name"})
	require.True(t, ok)
	assert.Equal(t, "Full Name", col)
	assert.True(t, comp.Taxonomy.ShouldExclude("junior developer"))
	assert.False(t, comp.Taxonomy.ShouldExclude("staff developer"))
}
