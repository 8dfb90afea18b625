package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
)

func newRecord(trackable id.Ref, owner *id.Ref, key string) *activity.Record {
	return &activity.Record{
		ID:         id.NewActivityID(),
		Trackable:  trackable,
		Owner:      owner,
		Key:        key,
		Parameters: map[string]any{"n": 1},
	}
}

func TestInMemoryStore_AppendFind(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	rec := newRecord(id.NewRef("Article", "1"), nil, "article.create")

	require.NoError(t, store.Append(ctx, rec))

	got, err := store.Find(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	got.Parameters["n"] = 2
	again, err := store.Find(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Parameters["n"], "callers get copies")

	_, err = store.Find(ctx, id.NewActivityID())
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.ErrorIs(t, store.Append(ctx, rec), sentinel.ErrConflict)
}

func TestInMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	article := id.NewRef("Article", "1")
	other := id.NewRef("Article", "2")
	alice := id.NewRef("User", "alice")

	first := newRecord(article, &alice, "article.create")
	second := newRecord(other, nil, "article.create")
	third := newRecord(article, &alice, "article.update")
	for _, rec := range []*activity.Record{first, second, third} {
		require.NoError(t, store.Append(ctx, rec))
	}

	t.Run("by trackable newest first", func(t *testing.T) {
		got, err := store.List(ctx, activity.Query{Trackable: &article})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, third.ID, got[0].ID)
		assert.Equal(t, first.ID, got[1].ID)
	})

	t.Run("by owner", func(t *testing.T) {
		got, err := store.List(ctx, activity.Query{Owner: &alice})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by key prefix", func(t *testing.T) {
		got, err := store.List(ctx, activity.Query{KeyPrefix: "article.update"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, third.ID, got[0].ID)
	})

	t.Run("recent with limit", func(t *testing.T) {
		got, err := store.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, third.ID, got[0].ID)
		assert.Equal(t, second.ID, got[1].ID)
	})

	t.Run("clear", func(t *testing.T) {
		store.Clear()
		assert.Equal(t, 0, store.Len())
	})
}

func TestInMemoryStore_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Append(ctx, newRecord(id.NewRef("Article", "1"), nil, "article.create"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, store.Len())
}
