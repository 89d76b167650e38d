package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/community-cli/internal/db"
	"github.com/sells-group/community-cli/internal/source"
	"github.com/sells-group/community-cli/internal/store"
)

func poolConfig() db.PoolConfig {
	return db.PoolConfig{MaxConns: cfg.Store.MaxConns, MinConns: cfg.Store.MinConns}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolConfig())
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// sourceDeps shares the store's connection with table-backed sources that
// have no database_url of their own.
func sourceDeps(st store.Store) source.Deps {
	deps := source.Deps{PoolCfg: poolConfig()}
	switch s := st.(type) {
	case *store.PostgresStore:
		deps.Pool = s.Pool()
	case *store.SQLiteStore:
		deps.SQLite = s.DB()
	}
	return deps
}

// openMigrated opens the configured store and applies the schema.
func openMigrated(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
