package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rideshare/internal/auth"
	"rideshare/internal/domain"
	"rideshare/internal/logger"
	"rideshare/internal/metrics"
	"rideshare/internal/repository/memory"
)

type fixture struct {
	users   *memory.UserRepository
	rides   *memory.RideRepository
	metrics *metrics.Metrics
	rideSvc *RideService
	authSvc *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := memory.NewUserRepository()
	rides := memory.NewRideRepository()
	m := metrics.New(prometheus.NewRegistry())
	log := logger.NewNop()

	return &fixture{
		users:   users,
		rides:   rides,
		metrics: m,
		rideSvc: NewRideService(rides, users, nil, nil, m, log),
		authSvc: NewAuthService(users, auth.NewPasswordHasher(bcrypt.MinCost), auth.NewTokenManager("test-secret", time.Hour), m, log),
	}
}

// addUser stores a user directly and returns its principal.
func (f *fixture) addUser(t *testing.T, id, username string, role domain.Role) domain.Principal {
	t.Helper()
	require.NoError(t, f.users.Create(context.Background(), &domain.User{
		ID:        id,
		Username:  username,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}))
	return domain.Principal{UserID: id, Username: username, Role: role}
}
