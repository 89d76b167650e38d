package source

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/community-cli/internal/config"
	"github.com/sells-group/community-cli/internal/db"
	"github.com/sells-group/community-cli/internal/fetcher"
)

// Source kinds.
const (
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
	KindFeed     = "feed"
)

// Deps are shared handles a source may reuse instead of opening its own.
type Deps struct {
	// Pool is used by postgres sources without their own database_url.
	Pool db.Pool
	// SQLite is used by sqlite sources without their own database_url.
	SQLite  *sql.DB
	Fetcher fetcher.Fetcher
	PoolCfg db.PoolConfig
}

// Open builds readers for the configured sources. The returned closer
// releases any connections opened here.
func Open(ctx context.Context, sources []config.SourceConfig, deps Deps) ([]Reader, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	readers := make([]Reader, 0, len(sources))
	for _, sc := range sources {
		switch sc.Kind {
		case KindPostgres:
			pool := deps.Pool
			if sc.DatabaseURL != "" {
				p, err := db.Connect(ctx, sc.DatabaseURL, deps.PoolCfg)
				if err != nil {
					closeAll()
					return nil, nil, eris.Wrapf(err, "source: connect %s", sc.Name)
				}
				closers = append(closers, p.Close)
				pool = p
			}
			if pool == nil {
				closeAll()
				return nil, nil, eris.Errorf("source: %s has no postgres connection", sc.Name)
			}
			readers = append(readers, NewPostgresReader(sc.Name, pool, sc.Table, sc.Columns))

		case KindSQLite:
			handle := deps.SQLite
			if sc.DatabaseURL != "" {
				h, err := sql.Open("sqlite", sc.DatabaseURL)
				if err != nil {
					closeAll()
					return nil, nil, eris.Wrapf(err, "source: open %s", sc.Name)
				}
				closers = append(closers, func() { h.Close() }) //nolint:errcheck
				handle = h
			}
			if handle == nil {
				closeAll()
				return nil, nil, eris.Errorf("source: %s has no sqlite database", sc.Name)
			}
			readers = append(readers, NewSQLiteReader(sc.Name, handle, sc.Table, sc.Columns))

		case KindFeed:
			if deps.Fetcher == nil {
				closeAll()
				return nil, nil, eris.Errorf("source: %s needs a fetcher", sc.Name)
			}
			readers = append(readers, NewFeedReader(sc.Name, deps.Fetcher, sc.URL, sc.Format, sc.Columns))

		default:
			closeAll()
			return nil, nil, eris.Errorf("source: unknown kind %q for %s", sc.Kind, sc.Name)
		}
	}
	return readers, closeAll, nil
}
