// Package store persists ranked prospects and the history of scoring runs.
package store

import (
	"context"
	"time"
)

// Store persists ranked prospects and run history.
type Store interface {
	Close() error

	// Prospects are keyed by URL. Rows with an empty URL are skipped and
	// repeated URLs within one call keep the first occurrence. The number
	// of prospects written is returned.
	UpsertProspects(ctx context.Context, runID string, prospects []Prospect) (int, error)
	GetProspect(ctx context.Context, url string) (Prospect, bool, error)
	ListProspects(ctx context.Context, f Filter) ([]Prospect, error)

	// Runs
	RecordRun(ctx context.Context, r Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Stats(ctx context.Context) (Stats, error)
}

// Prospect is a stored contact.
type Prospect struct {
	URL           string    `db:"url"`
	Name          string    `db:"name"`
	Title         string    `db:"title"`
	Company       string    `db:"company"`
	Sector        string    `db:"sector"`
	Segment       string    `db:"segment"`
	Location      string    `db:"location"`
	Email         string    `db:"email"`
	Phone         string    `db:"phone"`
	Score         int       `db:"score"`
	DecisionMaker bool      `db:"decision_maker"`
	Recommended   bool      `db:"recommended"`
	Source        string    `db:"source"`
	RunID         string    `db:"run_id"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Filter narrows ListProspects. Zero values match everything.
type Filter struct {
	Segment         string
	Sector          string
	RecommendedOnly bool
	Limit           int
}

// Run records one scoring run.
type Run struct {
	ID          string    `db:"id"`
	Input       string    `db:"input"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
	RowsIn      int       `db:"rows_in"`
	RowsOut     int       `db:"rows_out"`
	Recommended int       `db:"recommended"`
}

// Stats summarizes the stored prospects.
type Stats struct {
	Total     int
	BySector  map[string]int
	WithEmail int
}

// Unique drops prospects with an empty URL and keeps the first occurrence of
// each URL.
func Unique(prospects []Prospect) []Prospect {
	seen := make(map[string]bool, len(prospects))
	out := make([]Prospect, 0, len(prospects))
	for _, p := range prospects {
		if p.URL == "" || seen[p.URL] {
			continue
		}
		seen[p.URL] = true
		out = append(out, p)
	}
	return out
}
