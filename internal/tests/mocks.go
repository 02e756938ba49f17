// Package tests exercises the ride services against scripted collaborators.
package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
	"rideshare/internal/logger"
	"rideshare/internal/notify"
	"rideshare/internal/repository"
	"rideshare/internal/repository/memory"
	"rideshare/internal/service"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository wraps the in-memory store with error injection.
type MockRideRepository struct {
	*memory.RideRepository

	// Counters for verification
	UpdateStatusCallCount int32
	GetByIDCallCount      int32

	// AfterGetByID runs once, after the next GetByID has read the store.
	AfterGetByID func()

	// Error injection
	CreateError       error
	UpdateStatusError error
	ListError         error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{RideRepository: memory.NewRideRepository()}
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	return m.RideRepository.Create(ctx, ride)
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	atomic.AddInt32(&m.GetByIDCallCount, 1)
	ride, err := m.RideRepository.GetByID(ctx, id)
	if hook := m.AfterGetByID; hook != nil {
		m.AfterGetByID = nil
		hook()
	}
	return ride, err
}

func (m *MockRideRepository) ListByStatus(ctx context.Context, status domain.RideStatus) ([]*domain.Ride, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	return m.RideRepository.ListByStatus(ctx, status)
}

func (m *MockRideRepository) UpdateStatus(ctx context.Context, id string, from domain.RideStatus, update domain.RideUpdate) (*domain.Ride, error) {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return nil, m.UpdateStatusError
	}
	return m.RideRepository.UpdateStatus(ctx, id, from, update)
}

var _ repository.RideRepository = (*MockRideRepository)(nil)

// ──────────────────────────────────────────────
// MOCK RIDE CACHE
// ──────────────────────────────────────────────

// MockRideCache is an in-memory service.RideCache.
type MockRideCache struct {
	mu    sync.Mutex
	rides map[string]domain.Ride

	GetCallCount        int32
	FillCallCount       int32
	SetCallCount        int32
	InvalidateCallCount int32

	GetError error
	SetError error
}

// NewMockRideCache creates an empty cache.
func NewMockRideCache() *MockRideCache {
	return &MockRideCache{rides: make(map[string]domain.Ride)}
}

func (m *MockRideCache) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return nil, nil
	}
	return &ride, nil
}

func (m *MockRideCache) FillRide(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.FillCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; !ok {
		m.rides[ride.ID] = *ride
	}
	return nil
}

func (m *MockRideCache) SetRide(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = *ride
	return nil
}

func (m *MockRideCache) InvalidateRide(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rides, rideID)
	return nil
}

// Has reports whether rideID is cached.
func (m *MockRideCache) Has(rideID string) bool {
	_, ok := m.Cached(rideID)
	return ok
}

// Cached returns the cached copy of rideID.
func (m *MockRideCache) Cached(rideID string) (domain.Ride, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	return ride, ok
}

var _ service.RideCache = (*MockRideCache)(nil)

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// Delivery records one message handed to the publisher.
type Delivery struct {
	UserID string
	Role   domain.Role
	Type   string
}

// MockPublisher records deliveries instead of writing to sockets.
type MockPublisher struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func (m *MockPublisher) SendToUser(userID string, msg notify.Message) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, Delivery{UserID: userID, Type: msg.Type})
	return 1
}

func (m *MockPublisher) BroadcastToRole(role domain.Role, msg notify.Message) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, Delivery{Role: role, Type: msg.Type})
	return 1
}

// Deliveries returns a snapshot of recorded deliveries.
func (m *MockPublisher) Deliveries() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Delivery(nil), m.deliveries...)
}

var _ service.Publisher = (*MockPublisher)(nil)

// ──────────────────────────────────────────────
// HARNESS
// ──────────────────────────────────────────────

// Harness wires a RideService to mocks.
type Harness struct {
	Users     *memory.UserRepository
	Rides     *MockRideRepository
	Cache     *MockRideCache
	Publisher *MockPublisher
	Service   *service.RideService

	Alice domain.Principal
	Bob   domain.Principal
}

// NewHarness creates a harness with rider alice and driver bob.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	h := &Harness{
		Users:     memory.NewUserRepository(),
		Rides:     NewMockRideRepository(),
		Cache:     NewMockRideCache(),
		Publisher: &MockPublisher{},
	}
	log := logger.NewNop()
	notifier := service.NewNotificationService(h.Publisher, log)
	h.Service = service.NewRideService(h.Rides, h.Users, h.Cache, notifier, nil, log)

	h.Alice = h.addUser(t, "u-alice", "alice", domain.RoleUser)
	h.Bob = h.addUser(t, "u-bob", "bob", domain.RoleDriver)
	return h
}

func (h *Harness) addUser(t *testing.T, id, username string, role domain.Role) domain.Principal {
	t.Helper()
	require.NoError(t, h.Users.Create(context.Background(), &domain.User{
		ID:        id,
		Username:  username,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}))
	return domain.Principal{UserID: id, Username: username, Role: role}
}
