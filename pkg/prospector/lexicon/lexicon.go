package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon stores, for each logical field, the ordered header aliases used to
// auto-detect its source column.
//
// Matching rules:
//   - case-insensitive, spaces, underscores and hyphens ignored
//   - an alias matches a column when it is a substring of the column
//   - aliases are tried in order, columns in header order; first hit wins
type Lexicon struct {
	order   []string
	aliases map[string][]string
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{aliases: make(map[string][]string)}
}

// Default returns the aliases commonly seen in contact exports.
func Default() *Lexicon {
	lex := New()
	lex.AddGroup("name", []string{"name", "nom"})
	lex.AddGroup("title", []string{"title", "position", "occupation", "headline", "poste", "fonction"})
	lex.AddGroup("url", []string{"url", "profile", "profil", "linkedin"})
	lex.AddGroup("company", []string{"company", "entreprise", "organization", "organisation", "societe"})
	lex.AddGroup("sector", []string{"industry", "secteur", "sector"})
	lex.AddGroup("location", []string{"location", "localisation", "city", "ville"})
	return lex
}

// LoadFromYAML loads alias groups from a YAML file.
//
// Expected format:
//
//	fields:
//	  - field: title
//	    aliases: [title, position, poste]
//	  - field: url
//	    aliases: [url, profile]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}

	var doc struct {
		Fields []struct {
			Field   string   `yaml:"field"`
			Aliases []string `yaml:"aliases"`
		} `yaml:"fields"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}

	lex := New()
	for _, entry := range doc.Fields {
		lex.AddGroup(entry.Field, entry.Aliases)
	}
	return lex, nil
}

// AddGroup sets the aliases of a field, replacing any previous group. Empty
// and repeated aliases are dropped.
func (l *Lexicon) AddGroup(field string, aliases []string) {
	field = strings.ToLower(strings.TrimSpace(field))
	if field == "" {
		return
	}
	if _, exists := l.aliases[field]; !exists {
		l.order = append(l.order, field)
	}

	seen := make(map[string]bool, len(aliases))
	cleaned := make([]string, 0, len(aliases))
	for _, a := range aliases {
		key := squash(a)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, key)
	}
	l.aliases[field] = cleaned
}

// Aliases returns the normalized aliases of a field.
func (l *Lexicon) Aliases(field string) []string {
	return l.aliases[strings.ToLower(field)]
}

// Fields returns the fields in insertion order.
func (l *Lexicon) Fields() []string {
	return append([]string(nil), l.order...)
}

// Find returns the first column of header matching one of the field aliases.
func (l *Lexicon) Find(field string, header []string) (string, bool) {
	squashed := make([]string, len(header))
	for i, col := range header {
		squashed[i] = squash(col)
	}
	for _, alias := range l.Aliases(field) {
		for i, col := range squashed {
			if strings.Contains(col, alias) {
				return header[i], true
			}
		}
	}
	return "", false
}

// Detect resolves every known field against header. Fields with no match are
// absent from the result.
func (l *Lexicon) Detect(header []string) map[string]string {
	found := make(map[string]string, len(l.order))
	for _, field := range l.order {
		if col, ok := l.Find(field, header); ok {
			found[field] = col
		}
	}
	return found
}

func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '-', '_', '\ufeff':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
