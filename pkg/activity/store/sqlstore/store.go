// Package sqlstore persists activities in a SQL table through
// database/sql. Dialects for PostgreSQL and SQLite live in sibling packages.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
	"keeptrack/pkg/platform/tx"
)

// DefaultTable is the table activities are stored in.
const DefaultTable = "activities"

const columns = "id, trackable_type, trackable_id, owner_type, owner_id, recipient_type, recipient_id, activity_key, parameters, custom_fields, created_at"

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements activity.Repository. Statements run inside the
// transaction bound with tx.WithTx when there is one.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// Option configures a Store.
type Option func(*Store)

// WithTable overrides DefaultTable.
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// New builds a Store over db.
func New(db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is required")
	}
	s := &Store{db: db, dialect: dialect, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	if err := ValidateTable(s.table); err != nil {
		return nil, err
	}
	return s, nil
}

// Table returns the table name the store writes to.
func (s *Store) Table() string { return s.table }

// Migrate creates the table and its indexes when missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema(s.table) {
		if _, err := s.exec(ctx).ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *Store) exec(ctx context.Context) executor {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// Append implements activity.Store.
func (s *Store) Append(ctx context.Context, record *activity.Record) error {
	params, err := marshalMap(record.Parameters)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}
	customs, err := marshalMap(record.CustomFields)
	if err != nil {
		return fmt.Errorf("marshal custom fields: %w", err)
	}
	ownerType, ownerID := refColumns(record.Owner)
	recipientType, recipientID := refColumns(record.Recipient)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.table, columns, s.placeholders(1, 11))
	_, err = s.exec(ctx).ExecContext(ctx, query,
		record.ID.String(),
		record.Trackable.Type,
		record.Trackable.ID,
		ownerType,
		ownerID,
		recipientType,
		recipientID,
		record.Key,
		params,
		customs,
		record.CreatedAt.UTC(),
	)
	if err != nil {
		if s.dialect.IsConflict != nil && s.dialect.IsConflict(err) {
			return fmt.Errorf("activity %s: %w", record.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Find implements activity.Finder.
func (s *Store) Find(ctx context.Context, activityID id.ActivityID) (*activity.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", columns, s.table, s.dialect.Placeholder(1))
	rec, err := scanRecord(s.exec(ctx).QueryRowContext(ctx, query, activityID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("activity %s: %w", activityID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find activity: %w", err)
	}
	return rec, nil
}

// List implements activity.Finder.
func (s *Store) List(ctx context.Context, q activity.Query) ([]*activity.Record, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, vals ...any) {
		parts := make([]any, len(vals))
		for i := range vals {
			parts[i] = s.dialect.Placeholder(len(args) + i + 1)
		}
		where = append(where, fmt.Sprintf(clause, parts...))
		args = append(args, vals...)
	}
	if q.Trackable != nil {
		add("trackable_type = %s AND trackable_id = %s", q.Trackable.Type, q.Trackable.ID)
	}
	if q.Owner != nil {
		add("owner_type = %s AND owner_id = %s", q.Owner.Type, q.Owner.ID)
	}
	if q.Recipient != nil {
		add("recipient_type = %s AND recipient_id = %s", q.Recipient.Type, q.Recipient.ID)
	}
	if q.KeyPrefix != "" {
		add(`activity_key LIKE %s ESCAPE '\'`, escapeLike(q.KeyPrefix)+"%")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", columns, s.table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	rows, err := s.exec(ctx).QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var out []*activity.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return out, nil
}

func (s *Store) placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range n {
		parts[i] = s.dialect.Placeholder(from + i)
	}
	return strings.Join(parts, ", ")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*activity.Record, error) {
	var (
		rawID                      string
		rec                        activity.Record
		ownerType, ownerID         sql.NullString
		recipientType, recipientID sql.NullString
		params, customs            []byte
		createdAt                  time.Time
	)
	err := row.Scan(
		&rawID,
		&rec.Trackable.Type,
		&rec.Trackable.ID,
		&ownerType,
		&ownerID,
		&recipientType,
		&recipientID,
		&rec.Key,
		&params,
		&customs,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	activityID, err := id.ParseActivityID(rawID)
	if err != nil {
		return nil, err
	}
	rec.ID = activityID
	rec.Owner = refFromColumns(ownerType, ownerID)
	rec.Recipient = refFromColumns(recipientType, recipientID)
	rec.CreatedAt = createdAt.UTC()
	if rec.Parameters, err = unmarshalMap(params); err != nil {
		return nil, fmt.Errorf("unmarshal parameters: %w", err)
	}
	if rec.CustomFields, err = unmarshalMap(customs); err != nil {
		return nil, fmt.Errorf("unmarshal custom fields: %w", err)
	}
	return &rec, nil
}

func refColumns(ref *id.Ref) (sql.NullString, sql.NullString) {
	if ref == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: ref.Type, Valid: true}, sql.NullString{String: ref.ID, Valid: true}
}

func refFromColumns(typ, refID sql.NullString) *id.Ref {
	if !typ.Valid || !refID.Valid {
		return nil
	}
	return &id.Ref{Type: typ.String, ID: refID.String}
}

func marshalMap(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalMap(data []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
