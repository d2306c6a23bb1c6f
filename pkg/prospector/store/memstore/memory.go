package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/prospector/pkg/prospector/store"
)

// Store is an in-memory implementation of store.Store for tests and dry runs.
type Store struct {
	mu        sync.RWMutex
	prospects map[string]store.Prospect
	runs      map[string]store.Run
	now       func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		prospects: make(map[string]store.Prospect),
		runs:      make(map[string]store.Run),
		now:       time.Now,
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertProspects inserts or updates prospects keyed by URL.
func (s *Store) UpsertProspects(ctx context.Context, runID string, prospects []store.Prospect) (int, error) {
	prospects = store.Unique(prospects)

	s.mu.Lock()
	defer s.mu.Unlock()

	updatedAt := s.now().UTC()
	for _, p := range prospects {
		p.RunID = runID
		p.UpdatedAt = updatedAt
		s.prospects[p.URL] = p
	}
	return len(prospects), nil
}

// GetProspect returns a prospect by URL.
func (s *Store) GetProspect(ctx context.Context, url string) (store.Prospect, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prospects[url]
	return p, ok, nil
}

// ListProspects returns prospects by score, highest first, then URL.
func (s *Store) ListProspects(ctx context.Context, f store.Filter) ([]store.Prospect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Prospect
	for _, p := range s.prospects {
		if f.Segment != "" && p.Segment != f.Segment {
			continue
		}
		if f.Sector != "" && p.Sector != f.Sector {
			continue
		}
		if f.RecommendedOnly && !p.Recommended {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].URL < out[j].URL
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// RecordRun stores a run, replacing any run with the same ID.
func (s *Store) RecordRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
	return nil
}

// ListRuns returns runs in descending ID order.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stats implements store.Store.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := store.Stats{Total: len(s.prospects), BySector: make(map[string]int)}
	for _, p := range s.prospects {
		st.BySector[p.Sector]++
		if p.Email != "" {
			st.WithEmail++
		}
	}
	return st, nil
}

var _ store.Store = (*Store)(nil)
