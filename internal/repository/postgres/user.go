package postgres

import (
	"context"
	"database/sql"

	"rideshare/internal/domain"
)

const userColumns = `id, username, password_hash, role, created_at`

// UserRepository stores accounts in the users table.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// Create inserts user. A taken username surfaces as repository.ErrDuplicate
// through the UNIQUE constraint.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt,
	)
	return wrapError(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "username", username)
}

// getOne looks a user up by one of its unique columns.
func (r *UserRepository) getOne(ctx context.Context, column, value string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)

	var user domain.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}
