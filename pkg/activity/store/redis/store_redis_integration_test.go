//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"keeptrack/pkg/activity"
	redisstore "keeptrack/pkg/activity/store/redis"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
	"keeptrack/pkg/testutil/containers"
)

type FeedStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *redisstore.FeedStore
}

func TestFeedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(FeedStoreSuite))
}

func (s *FeedStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = redisstore.NewFeedStore(s.redis.Client, redisstore.WithPrefix("test"), redisstore.WithFeedLength(3))
}

func (s *FeedStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func record(trackable id.Ref, key string) *activity.Record {
	owner := id.NewRef("User", "u-1")
	return &activity.Record{
		ID:         id.NewActivityID(),
		Trackable:  trackable,
		Owner:      &owner,
		Key:        key,
		Parameters: map[string]any{"title": "Hello"},
		CreatedAt:  time.Now().UTC(),
	}
}

func (s *FeedStoreSuite) TestAppendFindAndConflict() {
	ctx := context.Background()
	rec := record(id.NewRef("Article", "1"), "article.create")

	s.Require().NoError(s.store.Append(ctx, rec))
	got, err := s.store.Find(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.Key, got.Key)
	s.Equal(rec.Parameters, got.Parameters)

	s.ErrorIs(s.store.Append(ctx, rec), sentinel.ErrConflict)

	_, err = s.store.Find(ctx, id.NewActivityID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *FeedStoreSuite) TestFeedsAreNewestFirstAndCapped() {
	ctx := context.Background()
	article := id.NewRef("Article", "1")
	var recs []*activity.Record
	for _, key := range []string{"article.create", "article.update", "article.update", "article.destroy"} {
		rec := record(article, key)
		s.Require().NoError(s.store.Append(ctx, rec))
		recs = append(recs, rec)
	}

	got, err := s.store.List(ctx, activity.Query{Trackable: &article})
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(recs[3].ID, got[0].ID)
	s.Equal(recs[1].ID, got[2].ID)

	updates, err := s.store.List(ctx, activity.Query{Trackable: &article, KeyPrefix: "article.update", Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(updates, 1)
	s.Equal(recs[2].ID, updates[0].ID)

	owner := id.NewRef("User", "u-1")
	byOwner, err := s.store.List(ctx, activity.Query{Owner: &owner})
	s.Require().NoError(err)
	s.Len(byOwner, 3)
}

func (s *FeedStoreSuite) TestFailedAppendLeavesNoBodyBehind() {
	ctx := context.Background()
	article := id.NewRef("Article", "9")
	poisoned := "test:feed:trackable:" + article.String()
	s.Require().NoError(s.redis.Client.Set(ctx, poisoned, "not a list", 0).Err())
	rec := record(article, "article.create")

	s.Require().Error(s.store.Append(ctx, rec))
	_, err := s.store.Find(ctx, rec.ID)
	s.ErrorIs(err, sentinel.ErrNotFound, "the body is not written when a feed push would fail")

	s.Require().NoError(s.redis.Client.Del(ctx, poisoned).Err())
	s.Require().NoError(s.store.Append(ctx, rec), "a retry is not mistaken for a duplicate")
	got, err := s.store.List(ctx, activity.Query{Trackable: &article})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(rec.ID, got[0].ID)
}

func (s *FeedStoreSuite) TestTTLExpiresBodies() {
	ctx := context.Background()
	store := redisstore.NewFeedStore(s.redis.Client, redisstore.WithPrefix("ttl"), redisstore.WithTTL(time.Minute))
	rec := record(id.NewRef("Article", "1"), "article.create")

	s.Require().NoError(store.Append(ctx, rec))

	ttl, err := s.redis.Client.PTTL(ctx, "ttl:activity:"+rec.ID.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}
