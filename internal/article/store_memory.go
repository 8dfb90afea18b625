package article

import (
	"context"
	"fmt"
	"sync"

	"keeptrack/pkg/platform/sentinel"
)

// Repository persists articles. Get returns a freshly loaded article with an
// empty instance tier.
type Repository interface {
	Create(ctx context.Context, f Fields) error
	Get(ctx context.Context, articleID string) (*Article, error)
	Save(ctx context.Context, f Fields) error
	Delete(ctx context.Context, articleID string) error
}

// InMemoryRepository keeps articles in process memory.
type InMemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]Fields
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]Fields)}
}

func (r *InMemoryRepository) Create(_ context.Context, f Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[f.ID]; exists {
		return fmt.Errorf("article %s: %w", f.ID, sentinel.ErrConflict)
	}
	r.byID[f.ID] = f
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, articleID string) (*Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byID[articleID]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", articleID, sentinel.ErrNotFound)
	}
	return &Article{Fields: f}, nil
}

func (r *InMemoryRepository) Save(_ context.Context, f Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[f.ID]; !ok {
		return fmt.Errorf("article %s: %w", f.ID, sentinel.ErrNotFound)
	}
	r.byID[f.ID] = f
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, articleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[articleID]; !ok {
		return fmt.Errorf("article %s: %w", articleID, sentinel.ErrNotFound)
	}
	delete(r.byID, articleID)
	return nil
}
