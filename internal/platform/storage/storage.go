// Package storage opens the configured primary activity store.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"keeptrack/internal/platform/config"
	"keeptrack/pkg/activity"
	"keeptrack/pkg/activity/store/memory"
	"keeptrack/pkg/activity/store/postgres"
	"keeptrack/pkg/activity/store/sqlite"
	"keeptrack/pkg/activity/store/sqlstore"
)

// Primary is an opened primary store. DB is nil for the memory backend.
type Primary struct {
	Repository activity.Repository
	DB         *sql.DB
}

// Open connects the backend named by cfg and, when cfg.Migrate is set,
// creates the activities table.
func Open(ctx context.Context, cfg config.StoreConfig) (_ *Primary, err error) {
	p := &Primary{}
	defer func() {
		if err != nil {
			_ = p.Close()
		}
	}()

	var st *sqlstore.Store
	switch cfg.Backend {
	case config.BackendMemory:
		p.Repository = memory.NewInMemoryStore()
		return p, nil
	case config.BackendPostgres:
		if p.DB, err = postgres.Open(ctx, cfg.DSN); err != nil {
			return nil, err
		}
		st, err = postgres.New(p.DB, sqlstore.WithTable(cfg.Table))
	case config.BackendSQLite:
		if p.DB, err = sqlite.Open(ctx, cfg.DSN); err != nil {
			return nil, err
		}
		st, err = sqlite.New(p.DB, sqlstore.WithTable(cfg.Table))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := st.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", cfg.Backend, err)
		}
	}
	p.Repository = st
	return p, nil
}

// Close releases the database handle, if any.
func (p *Primary) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	return p.DB.Close()
}
