package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"rideshare/internal/domain"
)

// CacheStore handles ride caching in Redis.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheStore creates a new CacheStore. A non-positive ttl uses RideCacheTTL.
func NewCacheStore(client *redis.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = RideCacheTTL
	}
	return &CacheStore{client: client, ttl: ttl}
}

// RideCacheTTL bounds how long a ride read can lag a transition made by
// another instance.
const RideCacheTTL = 10 * time.Second

const rideCachePrefix = "cache:ride:"

// CachedRide is the JSON form of a ride held in the cache.
type CachedRide struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	DriverID       string    `json:"driver_id,omitempty"`
	PickupLocation string    `json:"pickup_location"`
	DropLocation   string    `json:"drop_location"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	AcceptedAt     time.Time `json:"accepted_at"`
	CompletedAt    time.Time `json:"completed_at"`
}

func toCached(r *domain.Ride) CachedRide {
	return CachedRide{
		ID:             r.ID,
		UserID:         r.UserID,
		DriverID:       r.DriverID,
		PickupLocation: r.PickupLocation,
		DropLocation:   r.DropLocation,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
		AcceptedAt:     r.AcceptedAt,
		CompletedAt:    r.CompletedAt,
	}
}

func (c CachedRide) toDomain() (*domain.Ride, bool) {
	status, ok := domain.ParseRideStatus(c.Status)
	if !ok {
		return nil, false
	}
	return &domain.Ride{
		ID:             c.ID,
		UserID:         c.UserID,
		DriverID:       c.DriverID,
		PickupLocation: c.PickupLocation,
		DropLocation:   c.DropLocation,
		Status:         status,
		CreatedAt:      c.CreatedAt,
		AcceptedAt:     c.AcceptedAt,
		CompletedAt:    c.CompletedAt,
	}, true
}

// GetRide retrieves a ride from cache. A miss returns (nil, nil).
func (s *CacheStore) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	data, err := s.client.Get(ctx, rideCachePrefix+rideID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cached CachedRide
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	ride, ok := cached.toDomain()
	if !ok {
		// Unknown status; treat as a miss so the store is consulted.
		return nil, nil
	}
	return ride, nil
}

// SetRide stores a ride in cache, replacing any existing entry.
func (s *CacheStore) SetRide(ctx context.Context, ride *domain.Ride) error {
	data, err := json.Marshal(toCached(ride))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rideCachePrefix+ride.ID, data, s.ttl).Err()
}

// FillRide stores a ride read from the store unless an entry already exists.
func (s *CacheStore) FillRide(ctx context.Context, ride *domain.Ride) error {
	data, err := json.Marshal(toCached(ride))
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, rideCachePrefix+ride.ID, data, s.ttl).Err()
}

// InvalidateRide removes a ride from cache.
func (s *CacheStore) InvalidateRide(ctx context.Context, rideID string) error {
	return s.client.Del(ctx, rideCachePrefix+rideID).Err()
}
