package listings

import (
	"context"
	"sync"
)

// Repository defines the interface for listing catalog reads.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Listing, error)
}

// InMemoryRepository is a Repository backed by a map, used in tests and
// when no database is configured.
type InMemoryRepository struct {
	mu       sync.RWMutex
	listings map[string]*Listing
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		listings: make(map[string]*Listing),
	}
}

// Put stores or replaces a listing.
func (r *InMemoryRepository) Put(l *Listing) {
	r.mu.Lock()
	r.listings[l.ID] = l
	r.mu.Unlock()
}

// GetByID retrieves a listing by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	return l, nil
}
