package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
)

func TestRegister_IssuesUsableToken(t *testing.T) {
	f := newFixture(t)

	result, err := f.authSvc.Register(context.Background(), " alice ", "password1", "ROLE_USER")
	require.NoError(t, err)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, domain.RoleUser, result.Role)
	require.NotEmpty(t, result.Token)

	p, err := f.authSvc.ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, domain.RoleUser, p.Role)

	stored, err := f.users.GetByID(context.Background(), p.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "password1", stored.PasswordHash)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name     string
		username string
		password string
		role     string
		want     error
	}{
		{"short username", "al", "password1", "ROLE_USER", ErrInvalidCredentialsInput},
		{"long username", strings.Repeat("a", 51), "password1", "ROLE_USER", ErrInvalidCredentialsInput},
		{"short password", "alice", "12345", "ROLE_USER", ErrInvalidCredentialsInput},
		{"password over 72 bytes", "carol", strings.Repeat("p", 80), "ROLE_USER", ErrInvalidCredentialsInput},
		{"multibyte password over 72 bytes", "carol", strings.Repeat("é", 37), "ROLE_USER", ErrInvalidCredentialsInput},
		{"unknown role", "alice", "password1", "ROLE_ADMIN", ErrInvalidRole},
		{"lowercase role", "alice", "password1", "role_driver", ErrInvalidRole},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.authSvc.Register(ctx, tc.username, tc.password, tc.role)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := f.users.GetByUsername(ctx, "alice")
	assert.Error(t, err, "rejected registrations must not persist a user")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.authSvc.Register(ctx, "alice", "password1", "ROLE_USER")
	require.NoError(t, err)

	_, err = f.authSvc.Register(ctx, "alice", "password2", "ROLE_DRIVER")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.authSvc.Register(ctx, "bob", "password1", "ROLE_DRIVER")
	require.NoError(t, err)

	result, err := f.authSvc.Login(ctx, "bob", "password1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDriver, result.Role)

	_, wrongPassword := f.authSvc.Login(ctx, "bob", "nope")
	_, unknownUser := f.authSvc.Login(ctx, "nobody", "password1")
	assert.ErrorIs(t, wrongPassword, ErrBadCredentials)
	assert.ErrorIs(t, unknownUser, ErrBadCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

// Register alice and bob, then walk one ride through its whole lifecycle.
func TestRideLifecycle_AliceAndBob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.authSvc.Register(ctx, "alice", "password1", "ROLE_USER")
	require.NoError(t, err)
	_, err = f.authSvc.Register(ctx, "bob", "password1", "ROLE_DRIVER")
	require.NoError(t, err)

	aliceLogin, err := f.authSvc.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	bobLogin, err := f.authSvc.Login(ctx, "bob", "password1")
	require.NoError(t, err)

	alice, err := f.authSvc.ParseToken(aliceLogin.Token)
	require.NoError(t, err)
	bob, err := f.authSvc.ParseToken(bobLogin.Token)
	require.NoError(t, err)

	ride, err := f.rideSvc.RequestRide(ctx, alice, "A", "B")
	require.NoError(t, err)
	assert.Equal(t, domain.RideStatusRequested, ride.Status)

	pending, err := f.rideSvc.ListPendingRides(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ride.ID, pending[0].ID)

	accepted, err := f.rideSvc.AcceptRide(ctx, bob, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.UserID, accepted.DriverID)

	_, err = f.rideSvc.AcceptRide(ctx, bob, ride.ID)
	assert.ErrorIs(t, err, ErrInvalidRideState)

	completed, err := f.rideSvc.CompleteRide(ctx, alice, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RideStatusCompleted, completed.Status)

	_, err = f.rideSvc.CompleteRide(ctx, alice, ride.ID)
	assert.ErrorIs(t, err, ErrInvalidRideState)

	rides, err := f.rideSvc.ListRidesForUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, domain.RideStatusCompleted, rides[0].Status)
}
