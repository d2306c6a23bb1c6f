// Package report renders the run summary of a scoring run.
package report

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/prospector/pkg/prospector/analytics"
)

// Builder stamps reports with monotonic ULID run ids.
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewBuilder creates a report builder.
func NewBuilder() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Report describes one run.
type Report struct {
	ID         string            `json:"id"`
	Input      string            `json:"input"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Summary    analytics.Summary `json:"summary"`
	Outputs    []string          `json:"outputs,omitempty"`
}

// NewID returns a fresh run id.
func (b *Builder) NewID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(b.now()), b.entropy).String()
}

// Build creates a report for a finished run.
func (b *Builder) Build(input string, started time.Time, summary analytics.Summary) Report {
	return Report{
		ID:         b.NewID(),
		Input:      input,
		StartedAt:  started,
		FinishedAt: b.now(),
		Summary:    summary,
	}
}

// Time extracts the timestamp encoded in a run id.
func Time(id string) (time.Time, error) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run id %q: %w", id, err)
	}
	return ulid.Time(parsed.Time()), nil
}

// WriteText renders the report for a terminal.
func (r Report) WriteText(w io.Writer) error {
	s := r.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "run %s", r.ID)
	if r.Input != "" {
		fmt.Fprintf(&b, " (%s)", r.Input)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "rows: start=%d end=%d recommended=%d\n", s.TotalStart, s.TotalEnd, s.Recommended)
	fmt.Fprintf(&b, "score: min=%s max=%s nonzero=%d\n", optInt(s.ScoreMin), optInt(s.ScoreMax), s.ScoreNonZero)

	fmt.Fprintf(&b, "empty: title=%d", s.Empty.Title)
	if s.Empty.RawNameColumn != "" {
		fmt.Fprintf(&b, " raw %q=%d", s.Empty.RawNameColumn, s.Empty.RawName)
	}
	if s.Empty.RawTitleColumn != "" {
		fmt.Fprintf(&b, " raw %q=%d", s.Empty.RawTitleColumn, s.Empty.RawTitle)
	}
	b.WriteString("\n")

	if len(s.Rules) > 0 {
		b.WriteString("rules:\n")
		for _, rule := range s.Rules {
			fmt.Fprintf(&b, "  - %s\n", rule)
		}
	}
	if len(s.TopExclusions) > 0 {
		b.WriteString("top exclusions:\n")
		for _, rc := range s.TopExclusions {
			fmt.Fprintf(&b, "  - %s: %d\n", rc.Reason, rc.Removed)
		}
	}
	if len(s.ScoreDistribution) > 0 {
		b.WriteString("score distribution:\n")
		for _, bucket := range s.ScoreDistribution {
			fmt.Fprintf(&b, "  - %d: %d\n", bucket.Score, bucket.Count)
		}
	}
	for _, out := range r.Outputs {
		fmt.Fprintf(&b, "wrote %s\n", out)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
