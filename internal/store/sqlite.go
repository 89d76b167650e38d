package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/community-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection and SQLite has a single writer anyway.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// DB returns the underlying handle for table-backed listing readers.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

const sqliteEntityTable = `
CREATE TABLE IF NOT EXISTS %[1]s (
	slug            TEXT PRIMARY KEY,
	name            TEXT NOT NULL CHECK (name <> ''),
	normalized_name TEXT NOT NULL DEFAULT '',
	city            TEXT NOT NULL DEFAULT '',
	county          TEXT NOT NULL DEFAULT '',
	region          TEXT NOT NULL DEFAULT '',
	listing_count   INTEGER NOT NULL CHECK (listing_count >= 0),
	is_ocean        INTEGER NOT NULL DEFAULT 0,
	has_manual_data INTEGER NOT NULL DEFAULT 0,
	doc             TEXT NOT NULL,
	content_hash    TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_city ON %[1]s(city);
CREATE INDEX IF NOT EXISTS idx_%[1]s_county ON %[1]s(county);
CREATE INDEX IF NOT EXISTS idx_%[1]s_region ON %[1]s(region);
`

const sqliteMigrationTail = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_subdivisions_identity ON subdivisions(normalized_name, lower(city));

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	dry_run     INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME,
	report      TEXT,
	error       TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	var b strings.Builder
	for _, coll := range model.Collections {
		fmt.Fprintf(&b, sqliteEntityTable, coll)
	}
	b.WriteString(sqliteMigrationTail)
	_, err := s.db.ExecContext(ctx, b.String())
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertBatch compares each document's hash with the stored one and writes
// only on change.
func (s *SQLiteStore) UpsertBatch(ctx context.Context, coll model.Collection, docs []Document) (*BatchResult, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	res := &BatchResult{Collection: coll}
	now := s.now().UTC()

	selectQ := fmt.Sprintf(`SELECT content_hash FROM %s WHERE slug = ?`, coll)
	insertQ := fmt.Sprintf(`INSERT INTO %s
		(slug, name, normalized_name, city, county, region, listing_count, is_ocean, has_manual_data, doc, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, coll)
	updateQ := fmt.Sprintf(`UPDATE %s SET name = ?, normalized_name = ?, city = ?, county = ?, region = ?,
		listing_count = ?, is_ocean = ?, has_manual_data = ?, doc = ?, content_hash = ?, updated_at = ?
		WHERE slug = ?`, coll)

	for _, d := range docs {
		if reason := d.validate(); reason != "" {
			res.record(d.Slug, OutcomeSkipped, model.IncidentValidation, reason)
			continue
		}

		var existing string
		err := s.db.QueryRowContext(ctx, selectQ, d.Slug).Scan(&existing)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = s.db.ExecContext(ctx, insertQ,
				d.Slug, d.Name, d.NormalizedName, d.City, d.County, d.Region, d.ListingCount,
				d.IsOcean, d.HasManualData, string(d.Body), d.Hash, now, now)
			if err == nil {
				res.record(d.Slug, OutcomeCreated, "", "")
				continue
			}
		case err != nil:
		case existing == d.Hash:
			res.record(d.Slug, OutcomeUnchanged, "", "")
			continue
		default:
			_, err = s.db.ExecContext(ctx, updateQ,
				d.Name, d.NormalizedName, d.City, d.County, d.Region, d.ListingCount,
				d.IsOcean, d.HasManualData, string(d.Body), d.Hash, now, d.Slug)
			if err == nil {
				res.record(d.Slug, OutcomeUpdated, "", "")
				continue
			}
		}

		if ctx.Err() != nil {
			return res, eris.Wrap(ctx.Err(), "sqlite: upsert batch")
		}
		kind, outcome := classifySQLiteError(err)
		res.record(d.Slug, outcome, kind, err.Error())
	}
	return res, nil
}

func classifySQLiteError(err error) (model.IncidentKind, Outcome) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return model.IncidentDuplicateKey, OutcomeSkipped
	case strings.Contains(msg, "constraint failed"):
		return model.IncidentValidation, OutcomeSkipped
	default:
		return model.IncidentWriteFailed, OutcomeFailed
	}
}

func (s *SQLiteStore) Get(ctx context.Context, coll model.Collection, slug string) (json.RawMessage, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	var doc string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE slug = ?`, coll), slug).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get %s %s", coll, slug)
	}
	return json.RawMessage(doc), nil
}

func (s *SQLiteStore) List(ctx context.Context, coll model.Collection, f Filter) ([]json.RawMessage, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	query, args := listQuery(coll, f, func(int) string { return "?" }, true)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s", coll)
	}
	defer rows.Close() //nolint:errcheck

	var out []json.RawMessage
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", coll)
		}
		out = append(out, json.RawMessage(doc))
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: iterate %s", coll)
}

func (s *SQLiteStore) Count(ctx context.Context, coll model.Collection) (int, error) {
	if err := checkCollection(coll); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, coll)).Scan(&n)
	return n, eris.Wrapf(err, "sqlite: count %s", coll)
}

func (s *SQLiteStore) ManualContent(ctx context.Context) (map[string]model.ManualContent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM subdivisions WHERE has_manual_data = 1 ORDER BY slug`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query manual content")
	}
	defer rows.Close() //nolint:errcheck

	var docs [][]byte
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan manual content")
		}
		docs = append(docs, []byte(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate manual content")
	}
	return manualFromDocs(docs)
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	var report sql.NullString
	if run.Report != nil {
		b, err := json.Marshal(run.Report)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal report")
		}
		report = sql.NullString{String: string(b), Valid: true}
	}
	var finished sql.NullTime
	if run.FinishedAt != nil {
		finished = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, dry_run, started_at, finished_at, report, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			finished_at = excluded.finished_at,
			report = excluded.report,
			error = excluded.error`,
		run.ID, string(run.Status), run.DryRun, run.StartedAt.UTC(), finished, report, run.Error,
	)
	return eris.Wrapf(err, "sqlite: save run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, dry_run, started_at, finished_at, report, COALESCE(error, '') FROM runs WHERE id = ?`, id)
	run, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, f RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, dry_run, started_at, finished_at, report, COALESCE(error, '') FROM runs WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	query += " ORDER BY started_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func scanSQLiteRun(row scanner) (*model.Run, error) {
	var (
		run      model.Run
		status   string
		finished sql.NullTime
		report   sql.NullString
	)
	if err := row.Scan(&run.ID, &status, &run.DryRun, &run.StartedAt, &finished, &report, &run.Error); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	if report.Valid && report.String != "" {
		run.Report = &model.RunReport{}
		if err := json.Unmarshal([]byte(report.String), run.Report); err != nil {
			return nil, eris.Wrap(err, "decode run report")
		}
	}
	return &run, nil
}
