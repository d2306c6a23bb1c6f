// Package classify implements the heuristic contact classifiers: decision
// maker detection, sector detection, tech/business segmentation and hard
// exclusion. All classifiers normalize their input first.
package classify

import (
	"regexp"
	"strings"

	"github.com/cognicore/prospector/pkg/prospector/ingest"
)

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, rx := range patterns {
		if rx.MatchString(text) {
			return true
		}
	}
	return false
}

// IsDecisionMaker reports whether a job title names an owner, founder,
// president, C-level, manager, director, lead or partner, or a self-employed
// role (freelance, consultant, entrepreneur).
func (t *Taxonomy) IsDecisionMaker(title string) bool {
	text := ingest.Normalize(title)
	if text == "" {
		return false
	}
	return anyMatch(t.DecisionMaker, text)
}

// DetectSector returns the first sector family matching text.
func (t *Taxonomy) DetectSector(text string) (string, bool) {
	text = ingest.Normalize(text)
	if text == "" {
		return "", false
	}
	for _, s := range t.Sectors {
		if anyMatch(s.Patterns, text) {
			return s.Name, true
		}
	}
	return "", false
}

// ClassifySegment returns SegmentTech for developer and data profiles, web
// agencies and no-code/AI/automation profiles; SegmentBusiness otherwise.
func (t *Taxonomy) ClassifySegment(text string) ingest.Segment {
	text = ingest.Normalize(text)
	switch {
	case anyMatch(t.SegmentDev, text):
		return ingest.SegmentTech
	case anyMatch(t.SegmentAgency, text) && anyMatch(t.SegmentWeb, text):
		return ingest.SegmentTech
	case anyMatch(t.SegmentNoCode, text):
		return ingest.SegmentTech
	}
	return ingest.SegmentBusiness
}

// ShouldExclude reports whether a profile is out of target. Checks run in
// order:
//  1. students, interns, apprentices, recruiters and HR are excluded
//  2. generic developer/data profiles are excluded unless an allowed tech
//     marker (freelance, agency, no-code, marketing...) or a seniority
//     marker is present
//  3. strict junior/intern developer phrases are excluded
func (t *Taxonomy) ShouldExclude(text string) bool {
	text = ingest.Normalize(text)
	if text == "" {
		return false
	}
	if anyMatch(t.Exclude, text) {
		return true
	}
	if t.isGenericTech(text) && !anyMatch(t.TechAllowed, text) && !anyMatch(t.Seniority, text) {
		return true
	}
	return anyMatch(t.TechStrict, text)
}

func (t *Taxonomy) isGenericTech(text string) bool {
	// Substrings such as " dev" rely on a leading separator.
	padded := " " + text + " "
	for _, term := range t.TechGeneric {
		if strings.Contains(padded, term) {
			return true
		}
	}
	return false
}

// Annotate sets segment, sector and decision maker on a row. The segment and
// sector read name, title and url together; a detected sector replaces the
// mapped one, which otherwise stays as is. Decision makers are read from the
// title alone.
func (t *Taxonomy) Annotate(row *ingest.Row) {
	combined := row.Combined()
	row.Segment = t.ClassifySegment(combined)
	if sector, ok := t.DetectSector(combined); ok {
		row.Sector = sector
	}
	row.DecisionMaker = t.IsDecisionMaker(row.Title)
}

// Excluded reports whether ShouldExclude holds for the row's combined text.
func (t *Taxonomy) Excluded(row *ingest.Row) bool {
	return t.ShouldExclude(row.Combined())
}

// IsDecisionMaker uses the built-in taxonomy.
func IsDecisionMaker(title string) bool { return defaultTaxonomy.IsDecisionMaker(title) }

// DetectSector uses the built-in taxonomy.
func DetectSector(text string) (string, bool) { return defaultTaxonomy.DetectSector(text) }

// ClassifySegment uses the built-in taxonomy.
func ClassifySegment(text string) ingest.Segment { return defaultTaxonomy.ClassifySegment(text) }

// ShouldExclude uses the built-in taxonomy.
func ShouldExclude(text string) bool { return defaultTaxonomy.ShouldExclude(text) }
