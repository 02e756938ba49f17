package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"rideshare/internal/domain"
	"rideshare/internal/logger"
	"rideshare/internal/metrics"
	"rideshare/internal/repository"
)

// RideCache is a read-through cache for single rides.
// GetRide returns (nil, nil) on a miss. FillRide stores a ride only when no
// entry exists, so a slow read can never overwrite what SetRide wrote after
// a transition.
type RideCache interface {
	GetRide(ctx context.Context, rideID string) (*domain.Ride, error)
	FillRide(ctx context.Context, ride *domain.Ride) error
	SetRide(ctx context.Context, ride *domain.Ride) error
	InvalidateRide(ctx context.Context, rideID string) error
}

// RideService handles ride operations.
type RideService struct {
	rideRepo repository.RideRepository
	userRepo repository.UserRepository
	cache    RideCache
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

// NewRideService creates a new RideService. cache, notifier and m may be nil.
func NewRideService(
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	cache RideCache,
	notifier Notifier,
	m *metrics.Metrics,
	log *logger.Logger,
) *RideService {
	return &RideService{
		rideRepo: rideRepo,
		userRepo: userRepo,
		cache:    cache,
		notifier: notifier,
		metrics:  m,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RequestRide creates a new ride in REQUESTED state for the principal.
func (s *RideService) RequestRide(ctx context.Context, principal domain.Principal, pickup, drop string) (*domain.Ride, error) {
	pickup = strings.TrimSpace(pickup)
	drop = strings.TrimSpace(drop)
	if pickup == "" || drop == "" {
		return nil, ErrInvalidLocation
	}

	user, err := s.resolveUser(ctx, principal)
	if err != nil {
		return nil, err
	}

	ride := &domain.Ride{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		PickupLocation: pickup,
		DropLocation:   drop,
		Status:         domain.RideStatusRequested,
		CreatedAt:      s.now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("failed to create ride: %w", err)
	}

	s.metrics.ObserveTransition(string(ride.Status))
	s.logger.Info("ride requested",
		logger.String("ride_id", ride.ID),
		logger.String("user_id", user.ID),
	)
	if s.notifier != nil {
		s.notifier.RideRequested(ctx, ride)
	}

	return ride, nil
}

// ListPendingRides returns every ride still waiting for a driver.
func (s *RideService) ListPendingRides(ctx context.Context) ([]*domain.Ride, error) {
	rides, err := s.rideRepo.ListByStatus(ctx, domain.RideStatusRequested)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending rides: %w", err)
	}
	return rides, nil
}

// AcceptRide binds the principal, who must be a driver, to a REQUESTED ride.
func (s *RideService) AcceptRide(ctx context.Context, principal domain.Principal, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	driver, err := s.resolveUser(ctx, principal)
	if err != nil {
		return nil, err
	}
	if driver.Role != domain.RoleDriver {
		return nil, ErrForbidden
	}

	ride, err := s.loadRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.Status.CanTransitionTo(domain.RideStatusAccepted) {
		return nil, ErrInvalidRideState
	}

	return s.transition(ctx, ride, domain.RideUpdate{
		Status:     domain.RideStatusAccepted,
		DriverID:   driver.ID,
		AcceptedAt: s.now(),
	})
}

// CompleteRide moves an ACCEPTED ride to COMPLETED. Only the rider or the
// assigned driver may complete it.
func (s *RideService) CompleteRide(ctx context.Context, principal domain.Principal, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.loadRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.Status.CanTransitionTo(domain.RideStatusCompleted) {
		return nil, ErrInvalidRideState
	}
	if !ride.IsParticipant(principal.UserID) {
		return nil, ErrForbidden
	}

	return s.transition(ctx, ride, domain.RideUpdate{
		Status:      domain.RideStatusCompleted,
		CompletedAt: s.now(),
	})
}

// ListRidesForUser returns every ride requested by the principal.
func (s *RideService) ListRidesForUser(ctx context.Context, principal domain.Principal) ([]*domain.Ride, error) {
	user, err := s.resolveUser(ctx, principal)
	if err != nil {
		return nil, err
	}

	rides, err := s.rideRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rides for user: %w", err)
	}
	return rides, nil
}

// ListRidesForDriver returns every ride the principal has accepted.
func (s *RideService) ListRidesForDriver(ctx context.Context, principal domain.Principal) ([]*domain.Ride, error) {
	driver, err := s.resolveUser(ctx, principal)
	if err != nil {
		return nil, err
	}
	if driver.Role != domain.RoleDriver {
		return nil, ErrForbidden
	}

	rides, err := s.rideRepo.ListByDriverID(ctx, driver.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rides for driver: %w", err)
	}
	return rides, nil
}

// GetRide returns a ride visible to the principal: its rider, its driver,
// or any driver while the ride is still pending.
func (s *RideService) GetRide(ctx context.Context, principal domain.Principal, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.cachedRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	visible := ride.IsParticipant(principal.UserID) ||
		(principal.IsDriver() && ride.Status == domain.RideStatusRequested)
	if !visible {
		return nil, ErrForbidden
	}
	return ride, nil
}

// transition applies update with a conditional write keyed on the ride's
// current status, so a concurrent writer can never be overwritten.
func (s *RideService) transition(ctx context.Context, ride *domain.Ride, update domain.RideUpdate) (*domain.Ride, error) {
	updated, err := s.rideRepo.UpdateStatus(ctx, ride.ID, ride.Status, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			s.metrics.ObserveConflict(string(update.Status))
			s.logger.Warn("ride transition lost to concurrent update",
				logger.String("ride_id", ride.ID),
				logger.String("from", string(ride.Status)),
				logger.String("to", string(update.Status)),
			)
			return nil, ErrRideConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrRideNotFound
		default:
			s.logger.Error("ride transition failed",
				logger.String("ride_id", ride.ID),
				logger.Err(err),
			)
			return nil, fmt.Errorf("failed to update ride: %w", err)
		}
	}

	s.refreshCache(ctx, updated)
	s.metrics.ObserveTransition(string(updated.Status))
	s.logger.Info("ride transitioned",
		logger.String("ride_id", updated.ID),
		logger.String("from", string(ride.Status)),
		logger.String("to", string(updated.Status)),
		logger.String("driver_id", updated.DriverID),
	)

	if s.notifier != nil {
		switch updated.Status {
		case domain.RideStatusAccepted:
			s.notifier.RideAccepted(ctx, updated)
		case domain.RideStatusCompleted:
			s.notifier.RideCompleted(ctx, updated)
		}
	}
	return updated, nil
}

func (s *RideService) resolveUser(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	if principal.UserID == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// loadRide always reads the store; transition preconditions never use the cache.
func (s *RideService) loadRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}
	return ride, nil
}

func (s *RideService) cachedRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if s.cache != nil {
		ride, err := s.cache.GetRide(ctx, rideID)
		if err != nil {
			s.logger.Warn("ride cache read failed", logger.String("ride_id", rideID), logger.Err(err))
		} else if ride != nil {
			return ride, nil
		}
	}

	ride, err := s.loadRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.FillRide(ctx, ride); err != nil {
			s.logger.Warn("ride cache fill failed", logger.String("ride_id", rideID), logger.Err(err))
		}
	}
	return ride, nil
}

// refreshCache overwrites the cached copy with the post-transition ride.
// If the write fails the entry is dropped instead.
func (s *RideService) refreshCache(ctx context.Context, ride *domain.Ride) {
	if s.cache == nil {
		return
	}
	err := s.cache.SetRide(ctx, ride)
	if err == nil {
		return
	}
	s.logger.Warn("ride cache write failed", logger.String("ride_id", ride.ID), logger.Err(err))
	if err := s.cache.InvalidateRide(ctx, ride.ID); err != nil {
		s.logger.Warn("ride cache invalidation failed", logger.String("ride_id", ride.ID), logger.Err(err))
	}
}
