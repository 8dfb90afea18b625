//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"keeptrack/pkg/activity"
	"keeptrack/pkg/activity/store/postgres"
	"keeptrack/pkg/activity/store/sqlstore"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
	"keeptrack/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *sqlstore.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	store, err := postgres.New(s.postgres.DB)
	s.Require().NoError(err)
	s.Require().NoError(store.Migrate(context.Background()))
	s.store = store
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), sqlstore.DefaultTable))
}

func newRecord(key string, at time.Time) *activity.Record {
	owner := id.NewRef("User", "u-1")
	return &activity.Record{
		ID:           id.NewActivityID(),
		Trackable:    id.NewRef("Article", "1"),
		Owner:        &owner,
		Key:          key,
		Parameters:   map[string]any{"author_name": "Michael"},
		CustomFields: map[string]any{},
		CreatedAt:    at,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	rec := newRecord("article.create", time.Now().UTC().Truncate(time.Microsecond))

	s.Require().NoError(s.store.Append(ctx, rec))
	got, err := s.store.Find(ctx, rec.ID)

	s.Require().NoError(err)
	s.Equal(rec.Key, got.Key)
	s.Equal(rec.Owner, got.Owner)
	s.Equal(rec.Parameters, got.Parameters)
	s.True(rec.CreatedAt.Equal(got.CreatedAt))
}

// TestConcurrentDuplicateAppend verifies that the primary key turns racing
// appends of one record into exactly one success.
func (s *PostgresStoreSuite) TestConcurrentDuplicateAppend() {
	ctx := context.Background()
	rec := newRecord("article.create", time.Now().UTC())
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Append(ctx, rec)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestListNewestFirst() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	older := newRecord("article.create", base)
	newer := newRecord("article.update", base.Add(time.Minute))
	s.Require().NoError(s.store.Append(ctx, older))
	s.Require().NoError(s.store.Append(ctx, newer))

	got, err := s.store.List(ctx, activity.Query{KeyPrefix: "article."})

	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID)
	s.Equal(older.ID, got[1].ID)
}
