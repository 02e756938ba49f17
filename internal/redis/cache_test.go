package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rideshare/internal/domain"
)

func acceptedRide() *domain.Ride {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Ride{
		ID:             "ride-1",
		UserID:         "user-1",
		DriverID:       "driver-1",
		PickupLocation: "A",
		DropLocation:   "B",
		Status:         domain.RideStatusAccepted,
		CreatedAt:      created,
		AcceptedAt:     created.Add(time.Minute),
	}
}

func encoded(t *testing.T, ride *domain.Ride) []byte {
	t.Helper()
	data, err := json.Marshal(toCached(ride))
	require.NoError(t, err)
	return data
}

func TestCacheStore_GetRide(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewCacheStore(db, time.Minute)
	ctx := context.Background()
	ride := acceptedRide()

	mock.ExpectGet(rideCachePrefix + "ride-1").SetVal(string(encoded(t, ride)))

	got, err := store.GetRide(ctx, "ride-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ride.Status, got.Status)
	assert.Equal(t, ride.DriverID, got.DriverID)
	assert.True(t, ride.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, ride.AcceptedAt.Equal(got.AcceptedAt))
	assert.True(t, got.CompletedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheStore_GetRideMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewCacheStore(db, time.Minute)

	mock.ExpectGet(rideCachePrefix + "ride-1").RedisNil()

	got, err := store.GetRide(context.Background(), "ride-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheStore_GetRideError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewCacheStore(db, time.Minute)

	mock.ExpectGet(rideCachePrefix + "ride-1").SetErr(errors.New("connection refused"))

	got, err := store.GetRide(context.Background(), "ride-1")
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestCacheStore_UnknownStatusIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewCacheStore(db, 0)

	mock.ExpectGet(rideCachePrefix + "ride-1").SetVal(`{"id":"ride-1","status":"CANCELLED"}`)

	got, err := store.GetRide(context.Background(), "ride-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheStore_SetRideOverwrites(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewCacheStore(db, time.Minute)
	ride := acceptedRide()

	mock.ExpectSet(rideCachePrefix+"ride-1", encoded(t, ride), time.Minute).SetVal("OK")

	require.NoError(t, store.SetRide(context.Background(), ride))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheStore_FillRideOnlyWhenAbsent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewCacheStore(db, time.Minute)
	ride := acceptedRide()

	// An existing entry is left alone and is not an error.
	mock.ExpectSetNX(rideCachePrefix+"ride-1", encoded(t, ride), time.Minute).SetVal(false)

	require.NoError(t, store.FillRide(context.Background(), ride))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheStore_InvalidateRide(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewCacheStore(db, time.Minute)

	mock.ExpectDel(rideCachePrefix + "ride-1").SetVal(1)

	require.NoError(t, store.InvalidateRide(context.Background(), "ride-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewCacheStore_DefaultTTL(t *testing.T) {
	assert.Equal(t, RideCacheTTL, NewCacheStore(nil, 0).ttl)
	assert.Equal(t, time.Minute, NewCacheStore(nil, time.Minute).ttl)
}
