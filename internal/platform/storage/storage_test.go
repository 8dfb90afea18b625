package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keeptrack/internal/platform/config"
	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory backend has no database", func(t *testing.T) {
		p, err := Open(ctx, config.StoreConfig{Backend: config.BackendMemory})
		require.NoError(t, err)
		assert.Nil(t, p.DB)
		assert.NoError(t, p.Close())
	})

	t.Run("sqlite backend migrates and stores records", func(t *testing.T) {
		cfg := config.Default().Store
		cfg.Backend, cfg.DSN, cfg.Migrate = config.BackendSQLite, ":memory:", true
		p, err := Open(ctx, cfg)
		require.NoError(t, err)
		defer p.Close()
		require.NotNil(t, p.DB)

		rec := &activity.Record{
			ID:        id.NewActivityID(),
			Trackable: id.NewRef("Article", "1"),
			Key:       "article.create",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, p.Repository.Append(ctx, rec))
		got, err := p.Repository.Find(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "article.create", got.Key)
	})

	t.Run("unknown backend is rejected", func(t *testing.T) {
		_, err := Open(ctx, config.StoreConfig{Backend: "cassandra"})
		require.ErrorContains(t, err, "cassandra")
	})
}
