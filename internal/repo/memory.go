package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkordes/tripsync/backend/internal/domain"
)

// MemoryStore keeps trips in process memory. It implements both TripRepo and
// StopRepo and is the default backend when no DATABASE_URL is configured;
// everything is lost when the process exits.
//
// Only MemoryStore's own methods touch its state, and every value handed out
// is a copy, so callers can never mutate stored trips behind its back.
type MemoryStore struct {
	mu    sync.RWMutex
	trips []domain.Trip  // insertion order
	index map[string]int // trip id -> position in trips
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

var (
	_ TripRepo = (*MemoryStore)(nil)
	_ StopRepo = (*MemoryStore)(nil)
)

// Create appends the trip. Stop ids are reassigned from their positions.
func (m *MemoryStore) Create(_ context.Context, trip domain.Trip) (domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[trip.ID]; ok {
		return domain.Trip{}, fmt.Errorf("repo.MemoryStore.Create: trip %q: %w", trip.ID, domain.ErrConflict)
	}

	stored := trip.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	for i := range stored.Stops {
		stored.Stops[i].ID = domain.StopID(i)
	}

	m.index[stored.ID] = len(m.trips)
	m.trips = append(m.trips, stored)
	return stored.Clone(), nil
}

// GetByID is a read-only lookup.
func (m *MemoryStore) GetByID(_ context.Context, id string) (domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return domain.Trip{}, fmt.Errorf("repo.MemoryStore.GetByID: %w", domain.ErrNotFound)
	}
	return m.trips[i].Clone(), nil
}

// List returns copies of all trips in insertion order.
func (m *MemoryStore) List(_ context.Context) ([]domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Trip, len(m.trips))
	for i, t := range m.trips {
		out[i] = t.Clone()
	}
	return out, nil
}

// ListPaged returns one page of trips in insertion order and the total count.
func (m *MemoryStore) ListPaged(_ context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lo, hi := p.Window(len(m.trips))
	out := make([]domain.Trip, 0, hi-lo)
	for _, t := range m.trips[lo:hi] {
		out = append(out, t.Clone())
	}
	return out, int64(len(m.trips)), nil
}

// Append adds a stop at the end of the trip. No bounds or duplicate checks.
func (m *MemoryStore) Append(_ context.Context, tripID, name, address string) (domain.Stop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[tripID]
	if !ok {
		return domain.Stop{}, fmt.Errorf("repo.MemoryStore.Append: %w", domain.ErrNotFound)
	}

	trip := &m.trips[i]
	stop := domain.Stop{ID: domain.StopID(len(trip.Stops)), Name: name, Address: address}
	trip.Stops = append(trip.Stops, stop)
	return stop, nil
}

// ListByTripID returns a copy of the trip's stops.
func (m *MemoryStore) ListByTripID(ctx context.Context, tripID string) ([]domain.Stop, error) {
	trip, err := m.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("repo.MemoryStore.ListByTripID: %w", err)
	}
	return trip.Stops, nil
}
