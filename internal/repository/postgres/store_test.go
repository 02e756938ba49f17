package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.RideRepository = (*RideRepository)(nil)
)

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil))
	assert.ErrorIs(t, wrapError(sql.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, wrapError(fmt.Errorf("scan: %w", sql.ErrNoRows)), repository.ErrNotFound)
	assert.ErrorIs(t, wrapError(&pq.Error{Code: uniqueViolation}), repository.ErrDuplicate)
	assert.ErrorIs(t, wrapError(&pq.Error{Code: foreignKeyViolation}), repository.ErrNotFound)

	check := &pq.Error{Code: "23514"}
	assert.Equal(t, check, wrapError(check))

	other := errors.New("boom")
	assert.Equal(t, other, wrapError(other))
}

// testDB opens POSTGRES_TEST_DSN and skips when the database is unreachable.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		t.Skipf("Postgres not available: %v", err)
	}

	_, err = db.Exec(`DROP TABLE IF EXISTS rides, users`)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(context.Background(), db))

	t.Cleanup(func() { db.Close() })
	return db
}

func TestRepositories_Lifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	rides := NewRideRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, u := range []*domain.User{
		{ID: "u1", Username: "alice", PasswordHash: "h", Role: domain.RoleUser, CreatedAt: now},
		{ID: "u2", Username: "bob", PasswordHash: "h", Role: domain.RoleDriver, CreatedAt: now},
	} {
		require.NoError(t, users.Create(ctx, u))
	}
	assert.ErrorIs(t, users.Create(ctx, &domain.User{ID: "u3", Username: "alice", PasswordHash: "h", Role: domain.RoleUser, CreatedAt: now}), repository.ErrDuplicate)

	require.NoError(t, rides.Create(ctx, &domain.Ride{
		ID:             "r1",
		UserID:         "u1",
		PickupLocation: "A",
		DropLocation:   "B",
		Status:         domain.RideStatusRequested,
		CreatedAt:      now,
	}))

	got, err := rides.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, got.DriverID)
	assert.True(t, got.AcceptedAt.IsZero())

	accepted, err := rides.UpdateStatus(ctx, "r1", domain.RideStatusRequested, domain.RideUpdate{
		Status:     domain.RideStatusAccepted,
		DriverID:   "u2",
		AcceptedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "u2", accepted.DriverID)

	_, err = rides.UpdateStatus(ctx, "r1", domain.RideStatusRequested, domain.RideUpdate{Status: domain.RideStatusAccepted, DriverID: "u2"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = rides.UpdateStatus(ctx, "missing", domain.RideStatusRequested, domain.RideUpdate{Status: domain.RideStatusAccepted})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	completed, err := rides.UpdateStatus(ctx, "r1", domain.RideStatusAccepted, domain.RideUpdate{
		Status:      domain.RideStatusCompleted,
		CompletedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RideStatusCompleted, completed.Status)
	assert.Equal(t, "u2", completed.DriverID)

	byUser, err := rides.ListByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, byUser, 1)
	pending, err := rides.ListByStatus(ctx, domain.RideStatusRequested)
	require.NoError(t, err)
	assert.NotNil(t, pending)
	assert.Empty(t, pending)
}
