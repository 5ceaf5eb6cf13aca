package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ListLeadsFilter bounds and filters lead listings.
type ListLeadsFilter struct {
	Status Status
	Limit  int
	Offset int
}

// Repository defines the interface for lead storage
type Repository interface {
	Upsert(ctx context.Context, req *UpsertLeadRequest) (*Lead, error)
	GetBySession(ctx context.Context, sessionID string) (*Lead, error)
	List(ctx context.Context, filter ListLeadsFilter) ([]*Lead, error)
}

// InMemoryRepository is a Repository using in-memory storage, keyed by
// session like the database upsert.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Upsert inserts or replaces the lead for the request's session.
func (r *InMemoryRepository) Upsert(ctx context.Context, req *UpsertLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.leads[req.SessionID]; ok {
		existing.ListingID = req.ListingID
		existing.InterestLevel = req.InterestLevel
		existing.Status = req.Status
		existing.Notes = req.Notes
		existing.UpdatedAt = now
		copied := *existing
		return &copied, nil
	}

	lead := &Lead{
		ID:            uuid.New().String(),
		ListingID:     req.ListingID,
		SessionID:     req.SessionID,
		InterestLevel: req.InterestLevel,
		Status:        req.Status,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.leads[req.SessionID] = lead
	copied := *lead
	return &copied, nil
}

// GetBySession retrieves the lead for one session
func (r *InMemoryRepository) GetBySession(ctx context.Context, sessionID string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[sessionID]
	if !ok {
		return nil, ErrLeadNotFound
	}
	copied := *lead
	return &copied, nil
}

// List returns leads ordered by most recent update.
func (r *InMemoryRepository) List(ctx context.Context, filter ListLeadsFilter) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		copied := *lead
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*Lead{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
