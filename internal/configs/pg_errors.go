package configs

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres class 23505, unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
