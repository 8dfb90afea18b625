package memory

import (
	"context"
	"fmt"
	"sync"

	"keeptrack/pkg/activity"
	id "keeptrack/pkg/domain"
	"keeptrack/pkg/platform/sentinel"
)

// InMemoryStore keeps activities in process memory, newest last.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*activity.Record
	byID    map[id.ActivityID]*activity.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.ActivityID]*activity.Record)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byID = make(map[id.ActivityID]*activity.Record)
}

func (s *InMemoryStore) Append(_ context.Context, record *activity.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[record.ID]; exists {
		return fmt.Errorf("activity %s: %w", record.ID, sentinel.ErrConflict)
	}
	stored := record.Clone()
	s.records = append(s.records, stored)
	s.byID[stored.ID] = stored
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, activityID id.ActivityID) (*activity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[activityID]
	if !ok {
		return nil, fmt.Errorf("activity %s: %w", activityID, sentinel.ErrNotFound)
	}
	return rec.Clone(), nil
}

// List walks the records newest first, so equal timestamps keep reverse
// insertion order.
func (s *InMemoryStore) List(_ context.Context, q activity.Query) ([]*activity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*activity.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if !q.Matches(rec) {
			continue
		}
		out = append(out, rec.Clone())
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// ListRecent returns the most recent N activities across all trackables.
func (s *InMemoryStore) ListRecent(ctx context.Context, limit int) ([]*activity.Record, error) {
	return s.List(ctx, activity.Query{Limit: limit})
}

// Len reports how many activities are stored.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
