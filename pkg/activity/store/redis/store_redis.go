// Package redis keeps activities and their per-entity feeds in Redis.
//
// Each record is stored as JSON under "<prefix>:activity:<id>" and its ID is
// pushed onto the newest-first lists of its trackable, owner and recipient,
// plus a global list. Lists are capped, so a feed is a recent window rather
// than a full history.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
)

const (
	defaultPrefix  = "keeptrack"
	defaultFeedLen = 1000
)

// FeedStore implements activity.Repository over Redis.
type FeedStore struct {
	client  redis.UniversalClient
	prefix  string
	feedLen int64
	ttl     time.Duration
}

// Option configures a FeedStore.
type Option func(*FeedStore)

// WithPrefix namespaces every key.
func WithPrefix(prefix string) Option {
	return func(s *FeedStore) {
		s.prefix = prefix
	}
}

// WithFeedLength caps each feed list.
func WithFeedLength(n int) Option {
	return func(s *FeedStore) {
		if n > 0 {
			s.feedLen = int64(n)
		}
	}
}

// WithTTL expires record bodies. Feed entries whose body expired are
// skipped when listing.
func WithTTL(ttl time.Duration) Option {
	return func(s *FeedStore) {
		s.ttl = ttl
	}
}

// NewFeedStore builds a store over client.
func NewFeedStore(client redis.UniversalClient, opts ...Option) *FeedStore {
	s := &FeedStore{
		client:  client,
		prefix:  defaultPrefix,
		feedLen: defaultFeedLen,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *FeedStore) recordKey(activityID string) string {
	return s.prefix + ":activity:" + activityID
}

func (s *FeedStore) feedKey(kind string, ref id.Ref) string {
	return s.prefix + ":feed:" + kind + ":" + ref.String()
}

func (s *FeedStore) globalKey() string {
	return s.prefix + ":feed:all"
}

// appendScript writes a record body and pushes its ID onto every feed in
// one step. KEYS[1] is the body, KEYS[2:] the feeds; ARGV holds the body,
// the TTL in milliseconds (0 keeps it forever), the ID and the feed cap.
// Feeds are type-checked before anything is written, so a failing call
// leaves no orphaned body behind.
var appendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
for i = 2, #KEYS do
  local t = redis.call('TYPE', KEYS[i]).ok
  if t ~= 'none' and t ~= 'list' then
    return redis.error_reply('WRONGTYPE feed ' .. KEYS[i] .. ' holds a ' .. t)
  end
end
local ttl = tonumber(ARGV[2])
if ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[1])
end
local last = tonumber(ARGV[4]) - 1
for i = 2, #KEYS do
  redis.call('LPUSH', KEYS[i], ARGV[3])
  redis.call('LTRIM', KEYS[i], 0, last)
end
return 1
`)

// Append implements activity.Store. A duplicate ID is a
// sentinel.ErrConflict and leaves the feeds untouched. On Redis Cluster the
// prefix must be a hash tag, e.g. "{keeptrack}", so every key shares a slot.
func (s *FeedStore) Append(ctx context.Context, record *activity.Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	activityID := record.ID.String()
	keys := []string{s.recordKey(activityID), s.globalKey(), s.feedKey("trackable", record.Trackable)}
	if record.Owner != nil {
		keys = append(keys, s.feedKey("owner", *record.Owner))
	}
	if record.Recipient != nil {
		keys = append(keys, s.feedKey("recipient", *record.Recipient))
	}

	stored, err := appendScript.Run(ctx, s.client, keys, body, s.ttl.Milliseconds(), activityID, s.feedLen).Int()
	if err != nil {
		return fmt.Errorf("store activity: %w", err)
	}
	if stored == 0 {
		return fmt.Errorf("activity %s: %w", activityID, sentinel.ErrConflict)
	}
	return nil
}

// Find implements activity.Finder.
func (s *FeedStore) Find(ctx context.Context, activityID id.ActivityID) (*activity.Record, error) {
	body, err := s.client.Get(ctx, s.recordKey(activityID.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("activity %s: %w", activityID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	var rec activity.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal activity: %w", err)
	}
	return &rec, nil
}

// List implements activity.Finder. It reads the most specific feed for q
// and filters it with q.Matches.
func (s *FeedStore) List(ctx context.Context, q activity.Query) ([]*activity.Record, error) {
	feed := s.globalKey()
	switch {
	case q.Trackable != nil:
		feed = s.feedKey("trackable", *q.Trackable)
	case q.Owner != nil:
		feed = s.feedKey("owner", *q.Owner)
	case q.Recipient != nil:
		feed = s.feedKey("recipient", *q.Recipient)
	}

	ids, err := s.client.LRange(ctx, feed, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, activityID := range ids {
		keys[i] = s.recordKey(activityID)
	}
	bodies, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read activities: %w", err)
	}

	var out []*activity.Record
	for _, body := range bodies {
		raw, ok := body.(string)
		if !ok {
			continue
		}
		var rec activity.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal activity: %w", err)
		}
		if !q.Matches(&rec) {
			continue
		}
		out = append(out, &rec)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}
