package ingest

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a free-text value for matching: it trims, lowercases,
// strips diacritics (canonical decomposition, combining marks dropped) and
// collapses whitespace runs to a single space.
//
// "  PRÉSIDENT " and "president" normalize to the same string.
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}

	// The chain is stateful, so it is built per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, text)
	if err != nil {
		stripped = text
	}

	return strings.Join(strings.Fields(stripped), " ")
}

// NormalizeValue stringifies v and normalizes it. nil, nil pointers and NaN
// become the empty string.
func NormalizeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return Normalize(val)
	case *string:
		if val == nil {
			return ""
		}
		return Normalize(*val)
	case float64:
		if math.IsNaN(val) {
			return ""
		}
	case float32:
		if math.IsNaN(float64(val)) {
			return ""
		}
	}
	return Normalize(fmt.Sprint(v))
}
