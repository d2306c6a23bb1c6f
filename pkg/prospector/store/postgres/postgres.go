// Package postgres stores prospects in PostgreSQL through sqlx and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/cognicore/prospector/pkg/prospector/internalerr"
	"github.com/cognicore/prospector/pkg/prospector/store"
)

const (
	// EnvDSN names the environment variable holding the connection string.
	EnvDSN = "PROSPECTS_PG_DSN"

	DefaultMaxOpenConns    = 5
	DefaultMaxIdleConns    = 2
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultPingTimeout     = 5 * time.Second
)

// ResolveDSN returns the explicit DSN when set, else the value of EnvDSN.
func ResolveDSN(explicit string, getenv func(string) string) (string, error) {
	if dsn := strings.TrimSpace(explicit); dsn != "" {
		return dsn, nil
	}
	if getenv != nil {
		if dsn := strings.TrimSpace(getenv(EnvDSN)); dsn != "" {
			return dsn, nil
		}
	}
	return "", fmt.Errorf("%s is not set: %w", EnvDSN, internalerr.ErrInvalidConfig)
}

// Store implements store.Store on PostgreSQL.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open connects to PostgreSQL, verifies the connection and ensures the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %v: %w", err, internalerr.ErrStoreUnavailable)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	input TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	rows_in INTEGER NOT NULL DEFAULT 0,
	rows_out INTEGER NOT NULL DEFAULT 0,
	recommended INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS prospects (
	url TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	sector TEXT NOT NULL DEFAULT '',
	segment TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	score INTEGER NOT NULL DEFAULT 0,
	decision_maker BOOLEAN NOT NULL DEFAULT FALSE,
	recommended BOOLEAN NOT NULL DEFAULT FALSE,
	source TEXT NOT NULL DEFAULT '',
	run_id TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_prospects_sector ON prospects(sector);
`

// EnsureSchema creates the prospects and runs tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const upsertProspectSQL = `
	INSERT INTO prospects (url, name, title, company, sector, segment, location, email, phone,
		score, decision_maker, recommended, source, run_id, updated_at)
	VALUES (:url, :name, :title, :company, :sector, :segment, :location, :email, :phone,
		:score, :decision_maker, :recommended, :source, :run_id, :updated_at)
	ON CONFLICT (url) DO UPDATE SET
		name = EXCLUDED.name,
		title = EXCLUDED.title,
		company = EXCLUDED.company,
		sector = EXCLUDED.sector,
		segment = EXCLUDED.segment,
		location = EXCLUDED.location,
		email = EXCLUDED.email,
		phone = EXCLUDED.phone,
		score = EXCLUDED.score,
		decision_maker = EXCLUDED.decision_maker,
		recommended = EXCLUDED.recommended,
		source = EXCLUDED.source,
		run_id = EXCLUDED.run_id,
		updated_at = EXCLUDED.updated_at
`

// UpsertProspects writes prospects in one transaction keyed by url.
func (s *Store) UpsertProspects(ctx context.Context, runID string, prospects []store.Prospect) (int, error) {
	prospects = store.Unique(prospects)
	if len(prospects) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareNamedContext(ctx, upsertProspectSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	updatedAt := s.now().UTC()
	for _, p := range prospects {
		p.RunID = runID
		p.UpdatedAt = updatedAt
		if _, err := stmt.ExecContext(ctx, p); err != nil {
			return 0, fmt.Errorf("upsert prospect %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return len(prospects), nil
}

const selectProspectSQL = `
	SELECT url, name, title, company, sector, segment, location, email, phone,
	       score, decision_maker, recommended, source, run_id, updated_at
	FROM prospects
`

// GetProspect retrieves a prospect by url.
func (s *Store) GetProspect(ctx context.Context, url string) (store.Prospect, bool, error) {
	var p store.Prospect
	err := s.db.GetContext(ctx, &p, selectProspectSQL+" WHERE url = $1", url)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Prospect{}, false, nil
	}
	if err != nil {
		return store.Prospect{}, false, fmt.Errorf("get prospect: %w", err)
	}
	return p, true, nil
}

// ListProspects returns prospects by score, highest first, then url.
func (s *Store) ListProspects(ctx context.Context, f store.Filter) ([]store.Prospect, error) {
	query, args := listQuery(f)
	var out []store.Prospect
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}
	return out, nil
}

func listQuery(f store.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Segment != "" {
		add("segment = $%d", f.Segment)
	}
	if f.Sector != "" {
		add("sector = $%d", f.Sector)
	}
	if f.RecommendedOnly {
		where = append(where, "recommended")
	}

	query := selectProspectSQL
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY score DESC, url ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args
}

const upsertRunSQL = `
	INSERT INTO runs (id, input, started_at, finished_at, rows_in, rows_out, recommended)
	VALUES (:id, :input, :started_at, :finished_at, :rows_in, :rows_out, :recommended)
	ON CONFLICT (id) DO UPDATE SET
		input = EXCLUDED.input,
		started_at = EXCLUDED.started_at,
		finished_at = EXCLUDED.finished_at,
		rows_in = EXCLUDED.rows_in,
		rows_out = EXCLUDED.rows_out,
		recommended = EXCLUDED.recommended
`

// RecordRun stores a run, replacing any run with the same id.
func (s *Store) RecordRun(ctx context.Context, r store.Run) error {
	if _, err := s.db.NamedExecContext(ctx, upsertRunSQL, r); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `SELECT id, input, started_at, finished_at, rows_in, rows_out, recommended FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	var out []store.Run
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// Stats counts prospects in total, per sector and with an email.
func (s *Store) Stats(ctx context.Context) (store.Stats, error) {
	st := store.Stats{BySector: make(map[string]int)}
	if err := s.db.QueryRowxContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE email <> '') FROM prospects`,
	).Scan(&st.Total, &st.WithEmail); err != nil {
		return store.Stats{}, fmt.Errorf("count prospects: %w", err)
	}

	var rows []struct {
		Sector string `db:"sector"`
		N      int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT sector, COUNT(*) AS n FROM prospects GROUP BY sector`); err != nil {
		return store.Stats{}, fmt.Errorf("count by sector: %w", err)
	}
	for _, r := range rows {
		st.BySector[r.Sector] = r.N
	}
	return st, nil
}

var _ store.Store = (*Store)(nil)
