package ingest

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/cognicore/prospector/pkg/prospector/internalerr"
)

// Provenance values written by PrepareLinkedIn.
const (
	SourceLinkedInExport = "linkedin_connections_export"
	StatusToEnrich       = "a_enrichir"
	StatusInvalidURL     = "url_invalide_ou_absente"
)

// LinkedInColumns is the column order of a prepared LinkedIn table.
var LinkedInColumns = []string{
	"prenom", "nom", "nom_complet", "linkedin_url", "poste", "entreprise", "secteur",
	"email", "telephone", "site_web", "reseaux_sociaux", "source", "statut",
	"action_linkedin_autorisee", "validated_by", "validated_at", "interdit_action",
	"linkedin_slug",
}

// SplitName splits a full name on the first space: the first word is the
// first name, the rest is the last name.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// CleanProfileURL trims the URL, drops the query string and one trailing slash.
func CleanProfileURL(raw string) string {
	u := strings.TrimSpace(raw)
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = strings.TrimSpace(u[:i])
	}
	return strings.TrimSuffix(u, "/")
}

// ExtractSlug returns the profile identifier of a linkedin.com/in/<slug> URL,
// or "" when the URL is not a profile URL. Regional hosts such as
// fr.linkedin.com are accepted.
func ExtractSlug(raw string) string {
	clean := CleanProfileURL(raw)
	if clean == "" {
		return ""
	}
	if !strings.Contains(clean, "://") {
		clean = "https://" + clean
	}
	u, err := url.Parse(clean)
	if err != nil || u.Hostname() == "" {
		return ""
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil || domain != "linkedin.com" {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) != 2 || segments[0] != "in" || segments[1] == "" {
		return ""
	}
	return segments[1]
}

// PrepareQuality summarizes a LinkedIn preparation run.
type PrepareQuality struct {
	RowsIn     int
	EmptySlugs int
	Duplicates int
	RowsOut    int
}

func (q PrepareQuality) String() string {
	return fmt.Sprintf("rows in: %d, empty slugs: %d, duplicates: %d, rows out: %d",
		q.RowsIn, q.EmptySlugs, q.Duplicates, q.RowsOut)
}

// PrepareLinkedIn turns a connections export into the standardized contact
// table: names split, URL cleaned, slug extracted, status set and rows
// deduplicated on slug (first kept). Rows without a slug are never merged.
//
// The export must have a name and a URL column, matched case-insensitively.
func PrepareLinkedIn(raw RawTable) (RawTable, PrepareQuality, error) {
	nameCol, okName := findHeader(raw.Columns, "Name")
	urlCol, okURL := findHeader(raw.Columns, "URL")
	if !okName || !okURL {
		return RawTable{}, PrepareQuality{}, fmt.Errorf("linkedin export needs Name and URL columns, got %v: %w",
			raw.Columns, internalerr.ErrMissingColumn)
	}
	titleCol, _ := findHeader(raw.Columns, "Title")
	if titleCol == "" {
		titleCol, _ = findHeader(raw.Columns, "Position")
	}
	companyCol, _ := findHeader(raw.Columns, "Company")

	out := RawTable{Columns: append([]string(nil), LinkedInColumns...)}
	quality := PrepareQuality{RowsIn: len(raw.Records)}
	seen := make(map[string]bool)

	for _, rec := range raw.Records {
		full := strings.Join(strings.Fields(rec[nameCol]), " ")
		first, last := SplitName(full)
		profile := CleanProfileURL(rec[urlCol])
		slug := ExtractSlug(profile)

		if slug == "" {
			quality.EmptySlugs++
		} else if seen[slug] {
			quality.Duplicates++
			continue
		} else {
			seen[slug] = true
		}

		status := StatusToEnrich
		if slug == "" {
			status = StatusInvalidURL
		}

		contact := Record{
			"prenom":                    first,
			"nom":                       last,
			"nom_complet":               full,
			"linkedin_url":              profile,
			"source":                    SourceLinkedInExport,
			"statut":                    status,
			"action_linkedin_autorisee": "non",
			"interdit_action":           "oui",
			"linkedin_slug":             slug,
		}
		if titleCol != "" {
			contact["poste"] = strings.TrimSpace(rec[titleCol])
		}
		if companyCol != "" {
			contact["entreprise"] = strings.TrimSpace(rec[companyCol])
		}
		out.Records = append(out.Records, contact)
	}

	quality.RowsOut = len(out.Records)
	return out, quality, nil
}
