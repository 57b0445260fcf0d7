package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a looked-up entity does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned when a write would violate a uniqueness rule
	// (journey title per owner, note title per journey, location triple).
	ErrConflict = errors.New("resource conflict")
)

// DB is the subset of pgxpool.Pool the repositories use. Kept as an interface
// so tests can substitute a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Uniqueness is checked proactively before every write, but the DB
// index is what serializes two racing writers; a violation that slips through
// maps to ErrConflict like the proactive check would.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
