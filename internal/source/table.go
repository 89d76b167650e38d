package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/community-cli/internal/db"
	"github.com/sells-group/community-cli/internal/model"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// selectListings builds a SELECT that casts every mapped column to text,
// aliased by logical field name, ordered by listing key.
func selectListings(table string, cols ColumnMap, cast func(string) string) (string, error) {
	if !identRe.MatchString(table) {
		return "", eris.Errorf("source: invalid table name %q", table)
	}
	exprs := make([]string, len(Fields))
	for i, f := range Fields {
		col := cols.Column(f)
		if !identRe.MatchString(col) {
			return "", eris.Errorf("source: invalid column %q for %s", col, f)
		}
		exprs[i] = fmt.Sprintf(`%s AS "%s"`, cast(col), f)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(exprs, ", "), table, cols.Column(FieldListingKey)), nil
}

// PostgresReader reads one MLS table from Postgres.
type PostgresReader struct {
	name  string
	pool  db.Pool
	table string
	cols  ColumnMap
}

// NewPostgresReader creates a reader over table. cols maps logical fields to
// column names; unmapped fields use the snake_case defaults.
func NewPostgresReader(name string, pool db.Pool, table string, cols map[string]string) *PostgresReader {
	return &PostgresReader{name: name, pool: pool, table: table, cols: TableColumns(cols)}
}

func (r *PostgresReader) Source() string { return r.name }

func (r *PostgresReader) Read(ctx context.Context) ([]model.RawListing, error) {
	query, err := selectListings(r.table, r.cols, func(c string) string {
		return fmt.Sprintf("COALESCE(%s::text, '')", c)
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "source: query %s", r.name)
	}
	defer rows.Close()

	var out []model.RawListing
	vals := make([]string, len(Fields))
	dest := make([]any, len(Fields))
	for i := range vals {
		dest[i] = &vals[i]
	}
	logical := FeedColumns(nil)
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrapf(err, "source: scan %s", r.name)
		}
		out = append(out, listingFromRow(r.name, logical, zipFields(vals)))
	}
	return out, eris.Wrapf(rows.Err(), "source: iterate %s", r.name)
}

// SQLiteReader reads one MLS table through database/sql.
type SQLiteReader struct {
	name  string
	db    *sql.DB
	table string
	cols  ColumnMap
}

// NewSQLiteReader creates a reader over table in an open database.
func NewSQLiteReader(name string, handle *sql.DB, table string, cols map[string]string) *SQLiteReader {
	return &SQLiteReader{name: name, db: handle, table: table, cols: TableColumns(cols)}
}

func (r *SQLiteReader) Source() string { return r.name }

func (r *SQLiteReader) Read(ctx context.Context) ([]model.RawListing, error) {
	query, err := selectListings(r.table, r.cols, func(c string) string {
		return fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '')", c)
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "source: query %s", r.name)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RawListing
	vals := make([]string, len(Fields))
	dest := make([]any, len(Fields))
	for i := range vals {
		dest[i] = &vals[i]
	}
	logical := FeedColumns(nil)
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrapf(err, "source: scan %s", r.name)
		}
		out = append(out, listingFromRow(r.name, logical, zipFields(vals)))
	}
	return out, eris.Wrapf(rows.Err(), "source: iterate %s", r.name)
}

func zipFields(vals []string) map[string]string {
	row := make(map[string]string, len(Fields))
	for i, f := range Fields {
		row[f] = vals[i]
	}
	return row
}
