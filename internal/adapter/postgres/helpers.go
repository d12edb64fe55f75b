package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/PlanForge/internal/domain"
)

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// scannable abstracts pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// orEmpty keeps JSON output as [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// wrapErr annotates err and translates the pgx and SQLSTATE errors the
// service layer cares about into domain sentinels.
func wrapErr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return fmt.Errorf("%s: %w", msg, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

// execExpectOne turns an Exec that touched no rows into domain.ErrNotFound.
func execExpectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return wrapErr(err, format, args...)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return nil
}
