package classify

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/prospector/pkg/prospector/ingest"
	"github.com/cognicore/prospector/pkg/prospector/internalerr"
)

func TestIsDecisionMaker(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Gérante", true},
		{"Co-fondateur", true},
		{"Co-Founder & CEO", true},
		{"Chef d'entreprise", true},
		{"Président", true},
		{"Associé fondateur", true},
		{"Responsable marketing", true},
		{"Développeur freelance", true},
		{"Développeur", false},
		{"Assistante commerciale", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDecisionMaker(tt.title))
		})
	}
}

func TestDetectSector(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"Présidente association sportive", "association", true},
		{"Boutique de vêtements", "commerce", true},
		{"Gérant TPE", "tpe/pme", true},
		{"Studio photo", "agence/cabinet", true},
		{"Coiffure et boutique", "artisanat", true},
		{"Ingénieur", "", false},
	}
	for _, tt := range tests {
		got, ok := DetectSector(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestClassifySegment(t *testing.T) {
	tests := []struct {
		text string
		want ingest.Segment
	}{
		{"Développeur fullstack", ingest.SegmentTech},
		{"Data Scientist", ingest.SegmentTech},
		{"Agence web", ingest.SegmentTech},
		{"Agence immobilière", ingest.SegmentBusiness},
		{"Consultant no-code", ingest.SegmentTech},
		{"Consultant IA", ingest.SegmentTech},
		{"Boulanger", ingest.SegmentBusiness},
		{"", ingest.SegmentBusiness},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySegment(tt.text), tt.text)
	}
}

func TestShouldExclude(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		// Hard exclusions win over any seniority marker.
		{"étudiant senior developer", true},
		{"Stagiaire marketing", true},
		{"Responsable RH", true},
		{"Talent Acquisition Manager", true},
		// Generic tech profiles need an allowed marker or seniority.
		{"freelance developer", false},
		{"junior developer", true},
		{"Senior developer", false},
		{"Développeur WordPress", false},
		{"Data Engineer", false},
		// Business profiles pass.
		{"Gérant", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldExclude(tt.text), tt.text)
	}
}

func TestShouldExcludeStrictFamily(t *testing.T) {
	tax := *Default()
	tax.TechGeneric = nil
	assert.True(t, tax.ShouldExclude("junior dev python"))
	assert.False(t, tax.ShouldExclude("junior designer"))
}

func TestAnnotate(t *testing.T) {
	row := ingest.Row{
		Name:   "Jean Dupont",
		Title:  "Gérant boutique",
		URL:    "https://www.linkedin.com/in/jd",
		Sector: "Retail",
	}
	Default().Annotate(&row)

	assert.Equal(t, ingest.SegmentBusiness, row.Segment)
	assert.Equal(t, "commerce", row.Sector)
	assert.True(t, row.DecisionMaker)

	other := ingest.Row{Name: "Ana", Title: "Développeuse", Sector: "Informatique"}
	Default().Annotate(&other)
	assert.Equal(t, ingest.SegmentTech, other.Segment)
	assert.Equal(t, "Informatique", other.Sector)
	assert.False(t, other.DecisionMaker)
}

func TestLoadTaxonomyOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomie.yaml")
	content := `sectors:
  - name: sante
    patterns: ['\b(medecin|pharmacie)\b']
  - name: association
    patterns: ['\basso\b']
exclude: ['\bstagiaire\b']
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tax, err := LoadTaxonomy(path)
	require.NoError(t, err)

	sector, ok := tax.DetectSector("Pharmacie du centre")
	require.True(t, ok)
	assert.Equal(t, "sante", sector)

	_, ok = tax.DetectSector("Boutique")
	assert.False(t, ok)

	assert.True(t, tax.ShouldExclude("Stagiaire"))
	assert.False(t, tax.ShouldExclude("Recruteur"))
	// Families absent from the file keep their defaults.
	assert.True(t, tax.IsDecisionMaker("Gérant"))
	assert.Len(t, Default().Sectors, 5)
}

func TestLoadTaxonomyInvalidPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomie.yaml")
	require.NoError(t, os.WriteFile(path, []byte("decision_maker: ['(unclosed']\n"), 0o644))

	_, err := LoadTaxonomy(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}
