// Package keyword compiles keyword alternatives into a single substring
// predicate backed by an Aho-Corasick automaton.
package keyword

import (
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/cognicore/prospector/pkg/prospector/ingest"
)

// Matcher reports whether a normalized text contains any of its keywords.
// Matching is substring based, not whole-word: "dev" matches "developer".
type Matcher struct {
	mu       sync.Mutex
	keywords []string
	ac       *ahocorasick.Matcher
}

// Compile normalizes the keywords, drops empty and repeated ones and builds
// the matcher. It returns nil when no usable keyword remains.
func Compile(keywords []string) *Matcher {
	seen := make(map[string]bool, len(keywords))
	kept := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		n := ingest.Normalize(kw)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		kept = append(kept, n)
	}
	if len(kept) == 0 {
		return nil
	}
	return &Matcher{keywords: kept, ac: ahocorasick.NewStringMatcher(kept)}
}

// CompileValues is Compile for loosely typed configuration values. Non-string
// entries are stringified; nil entries are ignored.
func CompileValues(values []any) *Matcher {
	keywords := make([]string, 0, len(values))
	for _, v := range values {
		if s := ingest.NormalizeValue(v); s != "" {
			keywords = append(keywords, s)
		}
	}
	return Compile(keywords)
}

// Matches reports whether text contains at least one keyword. The text is
// expected to be normalized already.
func (m *Matcher) Matches(text string) bool {
	if m == nil || text == "" {
		return false
	}
	m.mu.Lock()
	hits := m.ac.Match([]byte(text))
	m.mu.Unlock()
	return len(hits) > 0
}

// Hits returns the keywords found in text, in compile order.
func (m *Matcher) Hits(text string) []string {
	if m == nil || text == "" {
		return nil
	}
	m.mu.Lock()
	idx := m.ac.Match([]byte(text))
	m.mu.Unlock()

	found := make(map[int]bool, len(idx))
	for _, i := range idx {
		found[i] = true
	}
	out := make([]string, 0, len(found))
	for i, kw := range m.keywords {
		if found[i] {
			out = append(out, kw)
		}
	}
	return out
}

// Keywords returns the normalized keywords.
func (m *Matcher) Keywords() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keywords...)
}
