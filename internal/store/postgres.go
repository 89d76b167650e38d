package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/community-cli/internal/db"
	"github.com/sells-group/community-cli/internal/model"
)

// PostgresStore implements Store on a pgx pool with JSONB documents.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// NewPostgres connects to Postgres.
func NewPostgres(ctx context.Context, connString string, poolCfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

// NewPostgresWithPool wraps an existing pool. The caller keeps ownership.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// Pool returns the underlying pool for table-backed listing readers.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresEntityTable = `
CREATE TABLE IF NOT EXISTS %[1]s (
	slug            TEXT PRIMARY KEY,
	name            TEXT NOT NULL CHECK (name <> ''),
	normalized_name TEXT NOT NULL DEFAULT '',
	city            TEXT NOT NULL DEFAULT '',
	county          TEXT NOT NULL DEFAULT '',
	region          TEXT NOT NULL DEFAULT '',
	listing_count   INTEGER NOT NULL CHECK (listing_count >= 0),
	is_ocean        BOOLEAN NOT NULL DEFAULT false,
	has_manual_data BOOLEAN NOT NULL DEFAULT false,
	doc             JSONB NOT NULL,
	content_hash    TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_city ON %[1]s(city);
CREATE INDEX IF NOT EXISTS idx_%[1]s_county ON %[1]s(county);
CREATE INDEX IF NOT EXISTS idx_%[1]s_region ON %[1]s(region);
CREATE INDEX IF NOT EXISTS idx_%[1]s_listing_count ON %[1]s(listing_count DESC, slug);
`

const postgresMigrationTail = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_subdivisions_identity ON subdivisions(normalized_name, lower(city));
CREATE INDEX IF NOT EXISTS idx_subdivisions_manual ON subdivisions(has_manual_data) WHERE has_manual_data;

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	dry_run     BOOLEAN NOT NULL DEFAULT false,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ,
	report      JSONB,
	error       TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`

func postgresMigration() string {
	var b strings.Builder
	for _, coll := range model.Collections {
		fmt.Fprintf(&b, postgresEntityTable, coll)
	}
	b.WriteString(postgresMigrationTail)
	return b.String()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration())
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const postgresUpsert = `INSERT INTO %[1]s
	(slug, name, normalized_name, city, county, region, listing_count, is_ocean, has_manual_data, doc, content_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
ON CONFLICT (slug) DO UPDATE SET
	name = EXCLUDED.name,
	normalized_name = EXCLUDED.normalized_name,
	city = EXCLUDED.city,
	county = EXCLUDED.county,
	region = EXCLUDED.region,
	listing_count = EXCLUDED.listing_count,
	is_ocean = EXCLUDED.is_ocean,
	has_manual_data = EXCLUDED.has_manual_data,
	doc = EXCLUDED.doc,
	content_hash = EXCLUDED.content_hash,
	updated_at = EXCLUDED.updated_at
WHERE %[1]s.content_hash IS DISTINCT FROM EXCLUDED.content_hash
RETURNING (xmax = 0) AS inserted`

// UpsertBatch writes docs one statement at a time so a bad record only
// costs itself. Duplicate and validation errors are skipped; an error is
// returned only when the connection itself fails.
func (s *PostgresStore) UpsertBatch(ctx context.Context, coll model.Collection, docs []Document) (*BatchResult, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	res := &BatchResult{Collection: coll}
	query := fmt.Sprintf(postgresUpsert, coll)
	now := s.now().UTC()

	for _, d := range docs {
		if reason := d.validate(); reason != "" {
			res.record(d.Slug, OutcomeSkipped, model.IncidentValidation, reason)
			continue
		}

		var inserted bool
		err := s.pool.QueryRow(ctx, query,
			d.Slug, d.Name, d.NormalizedName, d.City, d.County, d.Region,
			d.ListingCount, d.IsOcean, d.HasManualData, d.Body, d.Hash, now,
		).Scan(&inserted)

		switch {
		case err == nil && inserted:
			res.record(d.Slug, OutcomeCreated, "", "")
		case err == nil:
			res.record(d.Slug, OutcomeUpdated, "", "")
		case errors.Is(err, pgx.ErrNoRows):
			res.record(d.Slug, OutcomeUnchanged, "", "")
		default:
			switch db.Classify(err) {
			case db.ClassDuplicate:
				res.record(d.Slug, OutcomeSkipped, model.IncidentDuplicateKey, err.Error())
			case db.ClassValidation:
				res.record(d.Slug, OutcomeSkipped, model.IncidentValidation, err.Error())
			default:
				if ctx.Err() != nil {
					return res, eris.Wrap(ctx.Err(), "postgres: upsert batch")
				}
				res.record(d.Slug, OutcomeFailed, model.IncidentWriteFailed, err.Error())
			}
		}
	}
	return res, nil
}

func (s *PostgresStore) Get(ctx context.Context, coll model.Collection, slug string) (json.RawMessage, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	var doc []byte
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE slug = $1`, coll), slug).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get %s %s", coll, slug)
	}
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context, coll model.Collection, f Filter) ([]json.RawMessage, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	query, args := listQuery(coll, f, func(n int) string { return fmt.Sprintf("$%d", n) }, false)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s", coll)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", coll)
		}
		out = append(out, doc)
	}
	return out, eris.Wrapf(rows.Err(), "postgres: iterate %s", coll)
}

// listQuery builds the filtered listing query. placeholder renders the
// driver's nth bind parameter; SQLite needs a LIMIT before any OFFSET.
func listQuery(coll model.Collection, f Filter, placeholder func(int) string, offsetNeedsLimit bool) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, placeholder(len(args))))
	}
	if f.City != "" {
		add("lower(city) = lower(%s)", f.City)
	}
	if f.County != "" {
		add("lower(county) = lower(%s)", f.County)
	}
	if f.Region != "" {
		add("lower(region) = lower(%s)", f.Region)
	}
	if f.ExcludeOcean {
		where = append(where, "NOT is_ocean")
	}

	q := fmt.Sprintf("SELECT doc FROM %s", coll)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY listing_count DESC, slug"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += " LIMIT " + placeholder(len(args))
	}
	if f.Offset > 0 {
		if f.Limit <= 0 && offsetNeedsLimit {
			q += " LIMIT -1"
		}
		args = append(args, f.Offset)
		q += " OFFSET " + placeholder(len(args))
	}
	return q, args
}

func (s *PostgresStore) Count(ctx context.Context, coll model.Collection) (int, error) {
	if err := checkCollection(coll); err != nil {
		return 0, err
	}
	var n int
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, coll)).Scan(&n)
	return n, eris.Wrapf(err, "postgres: count %s", coll)
}

func (s *PostgresStore) ManualContent(ctx context.Context) (map[string]model.ManualContent, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM subdivisions WHERE has_manual_data ORDER BY slug`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query manual content")
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan manual content")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate manual content")
	}
	return manualFromDocs(docs)
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	var report []byte
	if run.Report != nil {
		var err error
		if report, err = json.Marshal(run.Report); err != nil {
			return eris.Wrap(err, "postgres: marshal report")
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, dry_run, started_at, finished_at, report, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at,
			report = EXCLUDED.report,
			error = EXCLUDED.error`,
		run.ID, string(run.Status), run.DryRun, run.StartedAt, run.FinishedAt, report, run.Error,
	)
	return eris.Wrapf(err, "postgres: save run %s", run.ID)
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, dry_run, started_at, finished_at, report, COALESCE(error, '') FROM runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, f RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, dry_run, started_at, finished_at, report, COALESCE(error, '') FROM runs`
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += " WHERE status = $1"
	}
	query += " ORDER BY started_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	var (
		run    model.Run
		status string
		report []byte
	)
	if err := row.Scan(&run.ID, &status, &run.DryRun, &run.StartedAt, &run.FinishedAt, &report, &run.Error); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if len(report) > 0 {
		run.Report = &model.RunReport{}
		if err := json.Unmarshal(report, run.Report); err != nil {
			return nil, eris.Wrap(err, "decode run report")
		}
	}
	return &run, nil
}
