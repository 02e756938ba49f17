package memory

import (
	"context"
	"sort"
	"sync"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// RideRepository is an in-memory repository.RideRepository.
type RideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride
}

// NewRideRepository creates an empty RideRepository.
func NewRideRepository() *RideRepository {
	return &RideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rides[ride.ID]; ok {
		return repository.ErrDuplicate
	}
	stored := *ride
	r.rides[ride.ID] = &stored
	return nil
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ride, ok := r.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

// ListByUserID retrieves all rides requested by a user.
func (r *RideRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Ride, error) {
	return r.filter(func(ride *domain.Ride) bool { return ride.UserID == userID }), nil
}

// ListByDriverID retrieves all rides bound to a driver.
func (r *RideRepository) ListByDriverID(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	return r.filter(func(ride *domain.Ride) bool { return ride.DriverID == driverID }), nil
}

// ListByStatus retrieves all rides currently in the given status.
func (r *RideRepository) ListByStatus(ctx context.Context, status domain.RideStatus) ([]*domain.Ride, error) {
	return r.filter(func(ride *domain.Ride) bool { return ride.Status == status }), nil
}

// UpdateStatus applies update under the write lock if the ride is still in from.
func (r *RideRepository) UpdateStatus(ctx context.Context, id string, from domain.RideStatus, update domain.RideUpdate) (*domain.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ride.Status != from {
		return nil, repository.ErrConflict
	}

	update.Apply(ride)
	copy := *ride
	return &copy, nil
}

// filter returns copies of the matching rides, oldest first.
func (r *RideRepository) filter(match func(*domain.Ride) bool) []*domain.Ride {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Ride, 0)
	for _, ride := range r.rides {
		if match(ride) {
			copy := *ride
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}
