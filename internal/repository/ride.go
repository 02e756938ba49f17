package repository

import (
	"context"

	"rideshare/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListByUserID retrieves all rides requested by a user.
	ListByUserID(ctx context.Context, userID string) ([]*domain.Ride, error)

	// ListByDriverID retrieves all rides bound to a driver.
	ListByDriverID(ctx context.Context, driverID string) ([]*domain.Ride, error)

	// ListByStatus retrieves all rides currently in the given status.
	ListByStatus(ctx context.Context, status domain.RideStatus) ([]*domain.Ride, error)

	// UpdateStatus atomically applies update to the ride only if its status
	// still equals from, and returns the updated ride.
	// Returns ErrNotFound if the ride does not exist and ErrConflict if its
	// status has moved on.
	UpdateStatus(ctx context.Context, id string, from domain.RideStatus, update domain.RideUpdate) (*domain.Ride, error)
}
