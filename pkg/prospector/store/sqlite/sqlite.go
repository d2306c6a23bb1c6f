package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/prospector/pkg/prospector/store"
)

// sqliteStore implements store.Store on SQLite.
type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema when missing.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", strings.ToLower(pragma), err)
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &sqliteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	input TEXT,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	rows_in INTEGER NOT NULL DEFAULT 0,
	rows_out INTEGER NOT NULL DEFAULT 0,
	recommended INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS prospects (
	url TEXT PRIMARY KEY,
	name TEXT,
	title TEXT,
	company TEXT,
	sector TEXT,
	segment TEXT,
	location TEXT,
	email TEXT,
	phone TEXT,
	score INTEGER NOT NULL DEFAULT 0,
	decision_maker INTEGER NOT NULL DEFAULT 0,
	recommended INTEGER NOT NULL DEFAULT 0,
	source TEXT,
	run_id TEXT,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prospects_sector ON prospects(sector);
CREATE INDEX IF NOT EXISTS idx_prospects_segment ON prospects(segment);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertProspects inserts or updates prospects keyed by url.
func (s *sqliteStore) UpsertProspects(ctx context.Context, runID string, prospects []store.Prospect) (int, error) {
	prospects = store.Unique(prospects)
	if len(prospects) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO prospects (url, name, title, company, sector, segment, location, email, phone,
	score, decision_maker, recommended, source, run_id, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
	name=excluded.name,
	title=excluded.title,
	company=excluded.company,
	sector=excluded.sector,
	segment=excluded.segment,
	location=excluded.location,
	email=excluded.email,
	phone=excluded.phone,
	score=excluded.score,
	decision_maker=excluded.decision_maker,
	recommended=excluded.recommended,
	source=excluded.source,
	run_id=excluded.run_id,
	updated_at=excluded.updated_at;
`
	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	updatedAt := s.now().UTC().Format(time.RFC3339)
	for _, p := range prospects {
		if _, err := stmt.ExecContext(ctx,
			p.URL, p.Name, p.Title, p.Company, p.Sector, p.Segment, p.Location, p.Email, p.Phone,
			p.Score, boolToInt(p.DecisionMaker), boolToInt(p.Recommended), p.Source, runID, updatedAt,
		); err != nil {
			return 0, fmt.Errorf("upsert prospect %s: %w", p.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(prospects), nil
}

const prospectColumns = `url, name, title, company, sector, segment, location, email, phone,
	score, decision_maker, recommended, source, run_id, updated_at`

// GetProspect retrieves a prospect by url.
func (s *sqliteStore) GetProspect(ctx context.Context, url string) (store.Prospect, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+prospectColumns+` FROM prospects WHERE url=?`, url)
	p, err := scanProspect(row)
	if err == sql.ErrNoRows {
		return store.Prospect{}, false, nil
	}
	if err != nil {
		return store.Prospect{}, false, err
	}
	return p, true, nil
}

// ListProspects returns prospects by score, highest first, then url.
func (s *sqliteStore) ListProspects(ctx context.Context, f store.Filter) ([]store.Prospect, error) {
	var (
		where []string
		args  []any
	)
	if f.Segment != "" {
		where = append(where, "segment=?")
		args = append(args, f.Segment)
	}
	if f.Sector != "" {
		where = append(where, "sector=?")
		args = append(args, f.Sector)
	}
	if f.RecommendedOnly {
		where = append(where, "recommended=1")
	}

	query := `SELECT ` + prospectColumns + ` FROM prospects`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY score DESC, url ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProspect(sc scanner) (store.Prospect, error) {
	var p store.Prospect
	var name, title, company, sector, segment, location sql.NullString
	var email, phone, source, runID sql.NullString
	var decisionMaker, recommended int
	var updatedAt string
	if err := sc.Scan(&p.URL, &name, &title, &company, &sector, &segment, &location, &email, &phone,
		&p.Score, &decisionMaker, &recommended, &source, &runID, &updatedAt); err != nil {
		return store.Prospect{}, err
	}
	p.Name, p.Title, p.Company = name.String, title.String, company.String
	p.Sector, p.Segment, p.Location = sector.String, segment.String, location.String
	p.Email, p.Phone, p.Source, p.RunID = email.String, phone.String, source.String, runID.String
	p.DecisionMaker = decisionMaker != 0
	p.Recommended = recommended != 0
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p, nil
}

// RecordRun stores a run, replacing any run with the same id.
func (s *sqliteStore) RecordRun(ctx context.Context, r store.Run) error {
	const stmt = `
INSERT INTO runs (id, input, started_at, finished_at, rows_in, rows_out, recommended)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	input=excluded.input,
	started_at=excluded.started_at,
	finished_at=excluded.finished_at,
	rows_in=excluded.rows_in,
	rows_out=excluded.rows_out,
	recommended=excluded.recommended;
`
	_, err := s.db.ExecContext(ctx, stmt, r.ID, r.Input,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.RowsIn, r.RowsOut, r.Recommended)
	return err
}

// ListRuns returns the most recent runs first. Run ids are ULIDs, so id
// order is creation order.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `SELECT id, input, started_at, finished_at, rows_in, rows_out, recommended FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Run
	for rows.Next() {
		var (
			r                 store.Run
			input             sql.NullString
			started, finished string
		)
		if err := rows.Scan(&r.ID, &input, &started, &finished, &r.RowsIn, &r.RowsOut, &r.Recommended); err != nil {
			return nil, err
		}
		r.Input = input.String
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats counts prospects in total, per sector and with an email.
func (s *sqliteStore) Stats(ctx context.Context) (store.Stats, error) {
	st := store.Stats{BySector: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN COALESCE(email, '') <> '' THEN 1 ELSE 0 END), 0) FROM prospects`,
	).Scan(&st.Total, &st.WithEmail); err != nil {
		return store.Stats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT COALESCE(sector, ''), COUNT(*) FROM prospects GROUP BY COALESCE(sector, '')`)
	if err != nil {
		return store.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sector string
			n      int
		)
		if err := rows.Scan(&sector, &n); err != nil {
			return store.Stats{}, err
		}
		st.BySector[sector] = n
	}
	return st, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
