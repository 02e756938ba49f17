package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"rideshare/internal/repository"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// SQLSTATE codes mapped onto repository errors.
const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
)

// wrapError translates sql and pq errors into repository errors.
// Anything unrecognized is returned unchanged.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		return repository.ErrDuplicate
	case foreignKeyViolation:
		// A ride referencing a user or driver that does not exist.
		return repository.ErrNotFound
	default:
		return err
	}
}
