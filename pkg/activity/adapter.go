package activity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	id "keeptrack/pkg/domain"
	"keeptrack/pkg/requestcontext"
)

//go:generate mockgen -source=adapter.go -destination=mocks/mocks.go -package=mocks

// Adapter persists composed settings for a trackable.
type Adapter interface {
	Create(ctx context.Context, trackable id.Ref, settings Settings) (*Record, error)
}

// Store appends records. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, record *Record) error
}

// Query filters a Finder listing. Zero fields do not filter. Results are
// ordered newest first.
type Query struct {
	Trackable *id.Ref
	Owner     *id.Ref
	Recipient *id.Ref
	KeyPrefix string
	Limit     int
}

// Finder reads records back. Find returns sentinel.ErrNotFound for unknown IDs.
type Finder interface {
	Find(ctx context.Context, activityID id.ActivityID) (*Record, error)
	List(ctx context.Context, q Query) ([]*Record, error)
}

// Repository is a store that can also be queried.
type Repository interface {
	Store
	Finder
}

// StoreAdapter is the default Adapter: it builds a record, stamps it with
// the request time, validates it and appends it to a Store.
type StoreAdapter struct {
	store Store
}

// NewStoreAdapter wraps store.
func NewStoreAdapter(store Store) *StoreAdapter {
	return &StoreAdapter{store: store}
}

// Create implements Adapter. Every failure is a *StorageError.
func (a *StoreAdapter) Create(ctx context.Context, trackable id.Ref, settings Settings) (*Record, error) {
	rec := NewRecord(trackable, settings)
	rec.CreatedAt = requestcontext.Now(ctx).UTC()
	if err := rec.Validate(); err != nil {
		return nil, &StorageError{Op: "validate", Err: err}
	}
	if err := a.store.Append(ctx, rec); err != nil {
		return nil, &StorageError{Op: "append", Err: err}
	}
	return rec, nil
}

// Matches reports whether rec satisfies the filters of q.
func (q Query) Matches(rec *Record) bool {
	if q.Trackable != nil && rec.Trackable != *q.Trackable {
		return false
	}
	if q.Owner != nil && (rec.Owner == nil || *rec.Owner != *q.Owner) {
		return false
	}
	if q.Recipient != nil && (rec.Recipient == nil || *rec.Recipient != *q.Recipient) {
		return false
	}
	if q.KeyPrefix != "" && !strings.HasPrefix(rec.Key, q.KeyPrefix) {
		return false
	}
	return true
}

// TeeStore appends to a primary store and then mirrors to secondaries.
// Only the primary's failure fails the append; mirror failures are logged.
type TeeStore struct {
	primary     Store
	secondaries []Store
	logger      *slog.Logger
}

// Tee builds a TeeStore. A nil logger discards mirror failures.
func Tee(logger *slog.Logger, primary Store, secondaries ...Store) *TeeStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TeeStore{primary: primary, secondaries: secondaries, logger: logger}
}

// Append implements Store.
func (t *TeeStore) Append(ctx context.Context, record *Record) error {
	if err := t.primary.Append(ctx, record); err != nil {
		return err
	}
	var errs []error
	for _, s := range t.secondaries {
		if err := s.Append(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		t.logger.WarnContext(ctx, "activity mirror append failed",
			"activity_id", record.ID,
			"key", record.Key,
			"error", err,
		)
	}
	return nil
}
