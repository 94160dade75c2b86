// Package storage holds the error taxonomy shared by the Postgres repositories.
package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUniqueViolation is returned when an insert or update conflicts with a
// unique index. The database is the authoritative enforcement point for
// uniqueness; service-level pre-checks only exist to give friendlier errors
// on the common path.
var ErrUniqueViolation = errors.New("unique constraint violation")

// uniqueViolationCode is the Postgres error code for unique_violation.
const uniqueViolationCode = "23505"

// MapError translates driver-level errors into the shared taxonomy.
// Unique-index conflicts come back as ErrUniqueViolation wrapped with the
// violated constraint name; anything else is returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
	}
	return err
}
