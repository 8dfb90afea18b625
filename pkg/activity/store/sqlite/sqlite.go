// Package sqlite stores activities in SQLite through the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"keeptrack/pkg/activity/store/sqlstore"
)

// Dialect is the SQLite flavour of sqlstore.
var Dialect = sqlstore.Dialect{
	Name:        "sqlite",
	Placeholder: sqlstore.QuestionPlaceholder,
	Schema:      schema,
	IsConflict:  isConflict,
}

// Open opens dsn, e.g. "file:activities.db" or ":memory:". SQLite allows a
// single writer, so the pool is capped at one connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// New builds a SQLite activity store.
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
	parameters TEXT NOT NULL DEFAULT '{}',
	custom_fields TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL
)`, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %[1]s_trackable_idx ON %[1]s (trackable_type, trackable_id)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %[1]s_owner_idx ON %[1]s (owner_type, owner_id)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %[1]s_recipient_idx ON %[1]s (recipient_type, recipient_id)", table),
	}
}

func isConflict(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
