// Package postgres stores activities in PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"keeptrack/pkg/activity/store/sqlstore"
)

const uniqueViolation = "23505"

// Dialect is the PostgreSQL flavour of sqlstore.
var Dialect = sqlstore.Dialect{
	Name:        "postgres",
	Placeholder: sqlstore.DollarPlaceholder,
	Schema:      schema,
	IsConflict:  isConflict,
}

// Open connects to dsn with the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// New builds a PostgreSQL activity store.
func New(db *sql.DB, opts ...sqlstore.Option) (*sqlstore.Store, error) {
	return sqlstore.New(db, Dialect, opts...)
}

func schema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	trackable_type TEXT NOT NULL,
	trackable_id TEXT NOT NULL,
	owner_type TEXT,
	owner_id TEXT,
	recipient_type TEXT,
	recipient_id TEXT,
	activity_key TEXT NOT NULL,
	parameters JSONB NOT NULL DEFAULT '{}',
	custom_fields JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL
)`, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %[1]s_trackable_idx ON %[1]s (trackable_type, trackable_id)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %[1]s_owner_idx ON %[1]s (owner_type, owner_id)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %[1]s_recipient_idx ON %[1]s (recipient_type, recipient_id)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %[1]s_created_at_idx ON %[1]s (created_at DESC)", table),
	}
}

func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
