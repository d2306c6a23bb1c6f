package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/prospector/pkg/prospector/internalerr"
)

// Sector is a named pattern family used by DetectSector.
type Sector struct {
	Name     string
	Patterns []*regexp.Regexp
}

// Taxonomy holds the ordered pattern families behind the classifiers.
// Patterns are matched against normalized text: lowercase, no diacritics.
type Taxonomy struct {
	DecisionMaker []*regexp.Regexp
	Sectors       []Sector

	// Exclusion families, evaluated in this order by ShouldExclude.
	Exclude     []*regexp.Regexp
	TechGeneric []string // plain substrings
	TechAllowed []*regexp.Regexp
	Seniority   []*regexp.Regexp
	TechStrict  []*regexp.Regexp

	// Segment families.
	SegmentDev    []*regexp.Regexp
	SegmentAgency []*regexp.Regexp
	SegmentWeb    []*regexp.Regexp
	SegmentNoCode []*regexp.Regexp
}

var defaultTaxonomy = &Taxonomy{
	DecisionMaker: mustCompile(
		`\b(gerant|gerante|co[- ]?gerant|co[- ]?gerante)\b`,
		`\b(dirigeant|dirigeante)\b`,
		`\b(fondateur|fondatrice|co[- ]?fondateur|co[- ]?fondatrice|founder|co[- ]?founder)\b`,
		`\b(president|presidente)\b`,
		`\b(ceo|coo|cto|cmo|cfo)\b`,
		`\b(owner|proprietaire)\b`,
		`\bchef(fe)? d['’ ]entreprise\b`,
		`\b(associe|associee|partner)\b`,
		`\b(manager|responsable|directeur|directrice|director|head|lead)\b`,
		`\b(freelance|freelancer|independant|independante|consultant|consultante)\b`,
		`\b(entrepreneur|entrepreneure|entrepreneuse|auto[- ]?entrepreneur)\b`,
	),
	Sectors: []Sector{
		{Name: "association", Patterns: mustCompile(`\b(association|asso|ong|fondation)\b`)},
		{Name: "artisanat", Patterns: mustCompile(`\b(artisan|artisanal|boulangerie|boucherie|coiffure|salon)\b`)},
		{Name: "commerce", Patterns: mustCompile(`\b(commerce|boutique|magasin|retail|e[- ]commerce)\b`)},
		{Name: "tpe/pme", Patterns: mustCompile(`\b(tpe|pme|micro[- ]entreprise|microentreprise)\b`)},
		{Name: "agence/cabinet", Patterns: mustCompile(`\b(agence|studio|cabinet|conseil)\b`)},
	},
	Exclude: mustCompile(
		`\b(etudiant|etudiante)\b`,
		`\b(alternant|alternante|alternance)\b`,
		`\b(apprenti|apprentie)\b`,
		`\b(stagiaire|stage)\b`,
		`\b(intern|internship)\b`,
		`\b(talent acquisition|recruteur|recruteuse|recrutement|recruiter|ressources humaines|rh|hr)\b`,
	),
	TechGeneric: []string{"developer", "developpeur", " dev", "data ", "data engineer", "data scientist"},
	TechAllowed: mustCompile(
		`\b(freelance|independant|consultant|consultante)\b`,
		`\b(agence|agency|studio|cabinet)\b`,
		`\b(no[- ]?code|nocode|automation|automatisation|ia|ai|ml|data)\b`,
		`\b(bubble|webflow|make\.com|zapier|n8n|wordpress|shopify)\b`,
		`\b(marketing|growth|seo|digital|communication)\b`,
	),
	Seniority: mustCompile(`\b(senior|lead|manager|head|director)\b`),
	TechStrict: mustCompile(
		`\bstagiaire dev\b`,
		`\bjunior dev\b`,
		`\balternant dev\b`,
		`\betudiant dev\b`,
		`\bdeveloper intern\b`,
		`\bsoftware intern\b`,
	),
	SegmentDev: mustCompile(
		`\b(developer|developpeur|developpeuse|devops|frontend|front[- ]end|backend|back[- ]end|fullstack|full[- ]stack)\b`,
		`\b(data engineer|data scientist|ml engineer)\b`,
	),
	SegmentAgency: mustCompile(`\b(agence|agency|studio|web agency)\b`),
	SegmentWeb:    mustCompile(`\b(web|digital|numerique|seo|site|wordpress|shopify|e[- ]?commerce)\b`),
	SegmentNoCode: mustCompile(
		`\b(no[- ]?code|nocode|bubble|webflow)\b`,
		`\b(make\.com|zapier|n8n)\b`,
		`\b(intelligence artificielle|ia|ai|automation|automatisation)\b`,
	),
}

// Default returns the built-in taxonomy. It must not be modified.
func Default() *Taxonomy {
	return defaultTaxonomy
}

func mustCompile(patterns ...string) []*regexp.Regexp {
	out, err := compileAll(patterns)
	if err != nil {
		panic(err)
	}
	return out
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		rx, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		out = append(out, rx)
	}
	return out, nil
}

type taxonomyFile struct {
	DecisionMaker []string `yaml:"decision_maker"`
	Sectors       []struct {
		Name     string   `yaml:"name"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"sectors"`
	Exclude     []string `yaml:"exclude"`
	TechGeneric []string `yaml:"tech_generic"`
	TechAllowed []string `yaml:"tech_allowed"`
	Seniority   []string `yaml:"seniority"`
	TechStrict  []string `yaml:"tech_strict"`
	Segment     struct {
		Dev    []string `yaml:"dev"`
		Agency []string `yaml:"agency"`
		Web    []string `yaml:"web"`
		NoCode []string `yaml:"nocode"`
	} `yaml:"segment"`
}

// LoadTaxonomy reads pattern families from a YAML file. Families present in
// the file replace the built-in ones; absent families keep their defaults.
// Sector order follows the file.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	var doc taxonomyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}

	tax := *defaultTaxonomy
	replace := func(dst *[]*regexp.Regexp, patterns []string) error {
		if len(patterns) == 0 {
			return nil
		}
		compiled, err := compileAll(patterns)
		if err != nil {
			return fmt.Errorf("taxonomy %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
		}
		*dst = compiled
		return nil
	}

	for _, step := range []struct {
		dst      *[]*regexp.Regexp
		patterns []string
	}{
		{&tax.DecisionMaker, doc.DecisionMaker},
		{&tax.Exclude, doc.Exclude},
		{&tax.TechAllowed, doc.TechAllowed},
		{&tax.Seniority, doc.Seniority},
		{&tax.TechStrict, doc.TechStrict},
		{&tax.SegmentDev, doc.Segment.Dev},
		{&tax.SegmentAgency, doc.Segment.Agency},
		{&tax.SegmentWeb, doc.Segment.Web},
		{&tax.SegmentNoCode, doc.Segment.NoCode},
	} {
		if err := replace(step.dst, step.patterns); err != nil {
			return nil, err
		}
	}

	if len(doc.TechGeneric) > 0 {
		tax.TechGeneric = append([]string(nil), doc.TechGeneric...)
	}

	if len(doc.Sectors) > 0 {
		tax.Sectors = make([]Sector, 0, len(doc.Sectors))
		for _, s := range doc.Sectors {
			if s.Name == "" {
				return nil, fmt.Errorf("taxonomy %s: sector without name: %w", path, internalerr.ErrInvalidConfig)
			}
			compiled, err := compileAll(s.Patterns)
			if err != nil {
				return nil, fmt.Errorf("taxonomy %s: sector %s: %v: %w", path, s.Name, err, internalerr.ErrInvalidConfig)
			}
			tax.Sectors = append(tax.Sectors, Sector{Name: s.Name, Patterns: compiled})
		}
	}

	return &tax, nil
}
