package postgres

import (
	"context"
	"database/sql"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

const rideColumns = `id, user_id, driver_id, pickup_location, drop_location, status, created_at, accepted_at, completed_at`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, user_id, driver_id, pickup_location, drop_location, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.UserID,
		nullString(ride.DriverID),
		ride.PickupLocation,
		ride.DropLocation,
		ride.Status,
		ride.CreatedAt,
	)
	return wrapError(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// ListByUserID retrieves all rides requested by a user.
func (r *RideRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE user_id = $1 ORDER BY created_at`, userID)
}

// ListByDriverID retrieves all rides bound to a driver.
func (r *RideRepository) ListByDriverID(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE driver_id = $1 ORDER BY created_at`, driverID)
}

// ListByStatus retrieves all rides currently in the given status.
func (r *RideRepository) ListByStatus(ctx context.Context, status domain.RideStatus) ([]*domain.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE status = $1 ORDER BY created_at`, status)
}

// UpdateStatus updates the ride in a single statement guarded by the
// expected status. Zero-valued update fields keep their current value.
func (r *RideRepository) UpdateStatus(ctx context.Context, id string, from domain.RideStatus, update domain.RideUpdate) (*domain.Ride, error) {
	query := `
		UPDATE rides
		SET status = $3,
		    driver_id = COALESCE($4, driver_id),
		    accepted_at = COALESCE($5, accepted_at),
		    completed_at = COALESCE($6, completed_at)
		WHERE id = $1 AND status = $2
		RETURNING ` + rideColumns

	ride, err := scanRide(r.q.QueryRowContext(ctx, query,
		id,
		from,
		update.Status,
		nullString(update.DriverID),
		nullTime(update.AcceptedAt),
		nullTime(update.CompletedAt),
	))
	if err != repository.ErrNotFound {
		return ride, err
	}

	// No row updated: either the ride is gone or its status moved on.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, repository.ErrConflict
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rides := make([]*domain.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRide(row scanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID sql.NullString
	var acceptedAt, completedAt sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.UserID,
		&driverID,
		&ride.PickupLocation,
		&ride.DropLocation,
		&ride.Status,
		&ride.CreatedAt,
		&acceptedAt,
		&completedAt,
	)
	if err != nil {
		return nil, wrapError(err)
	}

	if driverID.Valid {
		ride.DriverID = driverID.String
	}
	if acceptedAt.Valid {
		ride.AcceptedAt = acceptedAt.Time
	}
	if completedAt.Valid {
		ride.CompletedAt = completedAt.Time
	}
	return &ride, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
